package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteJSON writes v, indented, to savePath creating the parent folders
func WriteJSON(savePath string, v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(savePath), 0777); err != nil {
		return err
	}
	return os.WriteFile(savePath, bs, 0644)
}

// AppendToFile appends each content string to savePath as a separate line
func AppendToFile(savePath string, content ...string) error {
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}
