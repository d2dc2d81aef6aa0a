package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"chat-hub/errors"

	"github.com/abadojack/whatlanggo"
)

//go:embed words/*
var wordsFS embed.FS

// WordList is the merged blacklist plus per-file language tags for logging.
type WordList struct {
	Words     []string
	Languages []string
}

// LoadDefaultWords loads the word lists embedded in the binary.
func LoadDefaultWords() (*WordList, error) {
	return loadWords(wordsFS, "words")
}

// loadWords merges every .txt file under dir into a unique word list. The
// language of each file is detected from its content rather than trusted
// from the filename.
func loadWords(fsys fs.FS, dir string) (*WordList, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		info := whatlanggo.Detect(string(data))
		languages = append(languages, info.Lang.Iso6391())

		// Scanner handles \n and \r\n endings alike.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return &WordList{Words: words, Languages: languages}, nil
}
