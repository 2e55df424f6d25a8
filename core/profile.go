package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/huangsam/skillmine/schema"
)

// maxRecordLine bounds one JSON line; records carrying snippets can be large.
const maxRecordLine = 64 << 20

// WriteProfileRecords writes one JSON object per line. The file appears
// atomically so its presence can be trusted as a checkpoint.
func WriteProfileRecords(path string, records []schema.ProfileRecord) error {
	return writeJSONLines(path, len(records), func(enc *json.Encoder, i int) error {
		return enc.Encode(records[i])
	})
}

// ReadProfileRecords reads a file written by WriteProfileRecords.
func ReadProfileRecords(path string) ([]schema.ProfileRecord, error) {
	var records []schema.ProfileRecord
	err := readJSONLines(path, func(line []byte) error {
		var r schema.ProfileRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		if r.Stats == nil {
			r.Stats = schema.NewUserStats()
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// WriteRepoLibs writes the repository import index, one file per line, in path order.
func WriteRepoLibs(path, repoPath, repo string, libs map[string][]string) error {
	files := make([]string, 0, len(libs))
	for f := range libs {
		files = append(files, f)
	}
	sort.Strings(files)
	return writeJSONLines(path, len(files), func(enc *json.Encoder, i int) error {
		return enc.Encode(schema.RepoLibRecord{RepoPath: repoPath, Repo: repo, File: files[i], Imports: libs[files[i]]})
	})
}

// ReadRepoLibs reads the import index back into file -> imports.
// A missing file yields an empty index.
func ReadRepoLibs(path string) (map[string][]string, error) {
	libs := make(map[string][]string)
	if !fileExists(path) {
		return libs, nil
	}
	err := readJSONLines(path, func(line []byte) error {
		var r schema.RepoLibRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		libs[r.File] = r.Imports
		return nil
	})
	return libs, err
}

func writeJSONLines(path string, n int, encode func(enc *json.Encoder, i int) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range n {
		if err := encode(enc, i); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encode %s line %d: %w", path, i+1, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSONLines(path string, decode func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return decodeJSONLines(f, path, decode)
}

func decodeJSONLines(r io.Reader, name string, decode func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := decode(line); err != nil {
			return fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}
	}
	return sc.Err()
}
