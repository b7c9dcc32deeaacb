package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed alphabets/basic.txt alphabets/extra.txt
var FS embed.FS

//go:embed sql/*.sql
var migrations embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func BasicAlphabet() ([]string, error) {
	return readLines("alphabets/basic.txt")
}

func ExtraAlphabet() ([]string, error) {
	return readLines("alphabets/extra.txt")
}

// Migrations exposes the embedded sql/ directory rooted at "sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "sql")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
