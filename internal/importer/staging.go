package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"paginaflex/internal/domain/imports"

	"github.com/google/uuid"
)

var (
	ErrUploadNotFound = errors.New("upload not found, upload the file again")
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")
)

// uploadExtensions are the formats accepted for staging.
var uploadExtensions = []string{".xlsx", ".csv"}

// Stager keeps uploaded files on disk between preview and execute. Files
// are kept per user and kind under a random token.
type Stager struct {
	dir      string
	maxBytes int64
}

type Staged struct {
	Token string       `json:"token"`
	Kind  imports.Kind `json:"kind"`
	Name  string       `json:"file_name"`
	Size  int64        `json:"size"`
}

func NewStager(dir string, maxBytes int64) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stager{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Stager) path(userID int64, kind imports.Kind, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrUploadNotFound
	}
	return filepath.Join(s.dir, strconv.FormatInt(userID, 10), string(kind), token), nil
}

// Save copies r to a new staging slot and returns its token.
func (s *Stager) Save(userID int64, kind imports.Kind, name string, r io.Reader) (*Staged, error) {
	name = filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(uploadExtensions, ext) {
		return nil, &FormatError{Ext: ext}
	}

	token := uuid.NewString()
	dir, err := s.path(userID, kind, token)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxBytes {
		_ = os.RemoveAll(dir)
		return nil, ErrUploadTooLarge
	}
	return &Staged{Token: token, Kind: kind, Name: name, Size: n}, nil
}

// Open returns the original file name and content of a staged upload.
func (s *Stager) Open(userID int64, kind imports.Kind, token string) (string, io.ReadCloser, error) {
	dir, err := s.path(userID, kind, token)
	if err != nil {
		return "", nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return "", nil, ErrUploadNotFound
	}
	name := entries[0].Name()
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	return name, f, nil
}

func (s *Stager) Remove(userID int64, kind imports.Kind, token string) error {
	dir, err := s.path(userID, kind, token)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
