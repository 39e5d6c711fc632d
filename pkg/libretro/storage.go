package libretro

import (
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/retrolink/retrolink/pkg/compression/zip"
	"github.com/retrolink/retrolink/pkg/os"
)

type (
	// Storage persists core snapshots and save RAM outside the core.
	Storage interface {
		GetSavePath() string
		GetSRAMPath() string
		SetMainSaveName(name string)
		Load(path string) ([]byte, error)
		Save(path string, data []byte) error
	}
	StateStorage struct {
		// save path without the dir slash in the end
		Path string
		// the name of the main save file, e.g. abc<...>293.dat
		MainSave string
	}
	// ZipStorage compresses saves on top of another storage.
	ZipStorage struct {
		Storage
	}
)

func NewStateStorage(path string) *StateStorage {
	name := "save"
	if id, err := uuid.NewV4(); err == nil {
		name = id.String()
	}
	return &StateStorage{Path: path, MainSave: name}
}

func (s *StateStorage) SetMainSaveName(name string)      { s.MainSave = name }
func (s *StateStorage) GetSavePath() string              { return filepath.Join(s.Path, s.MainSave+".dat") }
func (s *StateStorage) GetSRAMPath() string              { return filepath.Join(s.Path, s.MainSave+".srm") }
func (s *StateStorage) Load(path string) ([]byte, error) { return os.ReadFile(path) }
func (s *StateStorage) Save(path string, dat []byte) error {
	return os.WriteFile(path, dat, 0644)
}

func (z *ZipStorage) GetSavePath() string { return z.Storage.GetSavePath() + zip.Ext }
func (z *ZipStorage) GetSRAMPath() string { return z.Storage.GetSRAMPath() + zip.Ext }

// Load loads a zip file with the path specified.
func (z *ZipStorage) Load(path string) ([]byte, error) {
	data, err := z.Storage.Load(path)
	if err != nil {
		return nil, err
	}
	d, _, err := zip.Read(data)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Save saves the array of bytes into a file with the specified path.
func (z *ZipStorage) Save(path string, data []byte) error {
	_, name := filepath.Split(path)
	if name == "" || name == "." {
		return zip.ErrorInvalidName
	}
	name = strings.TrimSuffix(name, zip.Ext)
	compress, err := zip.Compress(data, name)
	if err != nil {
		return err
	}
	return z.Storage.Save(path, compress)
}

// SetStorage attaches a save storage to the session.
func (s *Session) SetStorage(st Storage) { s.storage = st }

// SaveGameState snapshots the core and writes it to the attached
// storage. Save RAM, when the core exposes it, goes to a sibling
// file.
func (s *Session) SaveGameState() error {
	if s.storage == nil {
		return nil
	}
	state, err := s.SaveState()
	if err != nil {
		return err
	}
	if err := s.storage.Save(s.storage.GetSavePath(), state); err != nil {
		return err
	}
	if sram := s.saveRAM(); len(sram) > 0 {
		return s.storage.Save(s.storage.GetSRAMPath(), sram)
	}
	return nil
}

// RestoreGameState loads a snapshot from the attached storage into
// the core, restoring save RAM along the way when present.
func (s *Session) RestoreGameState() error {
	if s.storage == nil {
		return nil
	}
	state, err := s.storage.Load(s.storage.GetSavePath())
	if err != nil {
		return err
	}
	if sram, err := s.storage.Load(s.storage.GetSRAMPath()); err == nil && len(sram) > 0 {
		s.restoreSaveRAM(sram)
	}
	return s.RestoreState(state)
}

// saveRAM copies the cartridge save RAM out of the core, nil when the
// core has none.
func (s *Session) saveRAM() []byte {
	if s.state != GameLoaded {
		return nil
	}
	v, err := s.MemoryData(MemorySaveRAM)
	if err != nil || v == nil {
		return nil
	}
	data, err := v.Materialize()
	if err != nil {
		return nil
	}
	return data
}

// restoreSaveRAM writes data back into the core's save RAM bank.
func (s *Session) restoreSaveRAM(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = s.RestoreMemory(map[uint32][]byte{MemorySaveRAM: data})
}
