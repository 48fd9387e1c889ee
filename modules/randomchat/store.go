package randomchat

import (
	"github.com/cznic/kv"
	"github.com/pkg/errors"
)

var dictionaryKey = []byte("dictionary")

// Store persists a dictionary blob in a kv database on disk.
type Store struct {
	db *kv.DB
}

// OpenStore opens the database at path, creating it when absent.
func OpenStore(path string) (*Store, error) {
	db, err := kv.Open(path, &kv.Options{})
	if err != nil {
		db, err = kv.Create(path, &kv.Options{})
		if err != nil {
			return nil, errors.Wrap(err, "randomchat: opening dictionary store")
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadDictionary reads the saved dictionary. A store that has never been
// saved to yields an empty dictionary.
func (s *Store) LoadDictionary() (*Dictionary, error) {
	blob, err := s.db.Get(nil, dictionaryKey)
	if err != nil {
		return nil, errors.Wrap(err, "randomchat: reading dictionary")
	}
	if blob == nil {
		return NewDictionary(), nil
	}
	return FromBytes(blob)
}

// SaveDictionary writes the dictionary back to the database.
func (s *Store) SaveDictionary(d *Dictionary) error {
	if err := s.db.Set(dictionaryKey, d.ToBytes()); err != nil {
		return errors.Wrap(err, "randomchat: writing dictionary")
	}
	return nil
}
