package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/cryptox"
)

type fileRecord struct {
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

type sealedRecord struct {
	Salt   []byte `json:"salt"`
	Sealed []byte `json:"sealed"`
}

// FileStore persists the credential in a single file. Writes go to a temp
// file in the same directory which is then renamed over the target.
// With a passphrase the record is sealed (see cryptox).
type FileStore struct {
	path       string
	passphrase []byte

	mu   sync.Mutex
	salt []byte
	key  []byte
}

// NewFileStore returns a store at path. An empty passphrase stores plain JSON.
func NewFileStore(path string, passphrase []byte) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(ctx context.Context) (Credential, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read credential file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", false, nil
	}

	if len(s.passphrase) > 0 {
		if data, err = s.open(data); err != nil {
			return "", false, err
		}
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, fmt.Errorf("decode credential file: %w", err)
	}
	return Credential(rec.Token), rec.Token != "", nil
}

func (s *FileStore) Set(ctx context.Context, c Credential) error {
	if c == "" {
		return ErrEmptyCredential
	}
	data, err := json.Marshal(fileRecord{Token: string(c), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if len(s.passphrase) > 0 {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}
	return writeFileAtomic(s.path, data)
}

func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	s.mu.Lock()
	if s.key == nil {
		salt, err := cryptox.RandomBytes(cryptox.SaltSize)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.salt = salt
		s.key = cryptox.DeriveKey(s.passphrase, salt)
	}
	salt, key := s.salt, s.key
	s.mu.Unlock()

	sealed, err := cryptox.Seal(plain, key)
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}
	return json.Marshal(sealedRecord{Salt: salt, Sealed: sealed})
}

func (s *FileStore) open(data []byte) ([]byte, error) {
	var rec sealedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode sealed credential: %w", err)
	}

	s.mu.Lock()
	if s.key == nil || !bytes.Equal(s.salt, rec.Salt) {
		s.salt = rec.Salt
		s.key = cryptox.DeriveKey(s.passphrase, rec.Salt)
	}
	key := s.key
	s.mu.Unlock()

	plain, err := cryptox.Open(rec.Sealed, key)
	if err != nil {
		return nil, fmt.Errorf("open sealed credential: %w", err)
	}
	return plain, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}
