package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notedit/pkg/errors"
	"notedit/pkg/models"
	"notedit/pkg/performance"
	"notedit/pkg/utils"
)

// DefaultWatchDebounce coalesces bursts of file events for one note
const DefaultWatchDebounce = 300 * time.Millisecond

// NoteStore keeps notes as one JSON file per note and mirrors them in
// memory. External edits to the files are picked up by a watcher.
type NoteStore struct {
	dataDir      string
	notes        map[string]*models.Note
	mutex        sync.RWMutex
	watcher      *fsnotify.Watcher
	debouncer    *performance.Debouncer
	fileModTimes map[string]time.Time
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closed       bool
	now          func() time.Time
}

// NewNoteStore creates the data directory if needed and loads every note
// in it
func NewNoteStore(dataDir string) (*NoteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.ErrFileWriteFailed.WithCause(err).WithContext("path", dataDir)
	}

	store := &NoteStore{
		dataDir:      dataDir,
		notes:        make(map[string]*models.Note),
		fileModTimes: make(map[string]time.Time),
		debouncer:    performance.NewDebouncer(DefaultWatchDebounce),
		done:         make(chan struct{}),
		now:          time.Now,
	}

	if err := store.syncFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// GetDataDir returns the data directory path
func (s *NoteStore) GetDataDir() string {
	return s.dataDir
}

// Watch starts reloading notes when their files change on disk
func (s *NoteStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(s.dataDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dataDir, err)
	}

	s.mutex.Lock()
	s.watcher = watcher
	s.mutex.Unlock()

	s.wg.Add(1)
	go s.watch(watcher)
	return nil
}

func (s *NoteStore) watch(watcher *fsnotify.Watcher) {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			filename := filepath.Base(event.Name)
			if !utils.IsValidShortHashFilename(filename) || !strings.HasSuffix(filename, ".json") {
				continue
			}

			path := event.Name
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				s.debouncer.Debounce(path, func() { s.handleFileWrite(path) })
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				s.debouncer.Cancel(path)
				s.handleFileRemove(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// handleFileWrite reloads a note changed outside the store
func (s *NoteStore) handleFileWrite(path string) {
	if s.stopped() {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	last, seen := s.fileModTimes[path]
	if seen && !info.ModTime().After(last) {
		// our own write
		s.mutex.Unlock()
		return
	}
	s.fileModTimes[path] = info.ModTime()
	s.mutex.Unlock()

	note, err := readNoteFile(path)
	if err != nil {
		log.Printf("Error reading changed file %s: %v", path, err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}
	existing, exists := s.notes[note.ID]
	if !exists || note.UpdatedAt.After(existing.UpdatedAt) {
		s.notes[note.ID] = note
		log.Printf("Updated note %s from external file change", note.ID)
	}
}

// stopped reports whether Close has been called
func (s *NoteStore) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// handleFileRemove drops a note whose file was removed
func (s *NoteStore) handleFileRemove(path string) {
	id := strings.TrimSuffix(filepath.Base(path), ".json")

	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	_, existed := s.notes[id]
	delete(s.notes, id)
	delete(s.fileModTimes, path)
	s.mutex.Unlock()

	if existed {
		log.Printf("Removed note %s due to external file deletion", id)
	}
}

// syncFromDisk performs a full sync from disk
func (s *NoteStore) syncFromDisk() error {
	files, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return errors.ErrFileReadFailed.WithCause(err).WithContext("path", s.dataDir)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	onDisk := make(map[string]bool)
	for _, file := range files {
		if !utils.IsValidShortHashFilename(filepath.Base(file)) {
			log.Printf("Ignoring file with invalid name pattern during sync: %s", filepath.Base(file))
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		note, err := readNoteFile(file)
		if err != nil {
			log.Printf("Error loading note from %s: %v", file, err)
			continue
		}

		onDisk[note.ID] = true
		s.fileModTimes[file] = info.ModTime()

		existing, exists := s.notes[note.ID]
		if !exists || note.UpdatedAt.After(existing.UpdatedAt) {
			s.notes[note.ID] = note
		}
	}

	for id := range s.notes {
		if !onDisk[id] {
			delete(s.notes, id)
		}
	}
	return nil
}

// CreateNote stores a new note and returns it with its generated ID
func (s *NoteStore) CreateNote(title string, contents []models.Block) (*models.Note, error) {
	now := s.now()
	note := &models.Note{
		ID:        utils.GenerateShortUUID(),
		Title:     title,
		Contents:  models.CloneBlocks(nonNil(contents)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.saveNote(note); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.notes[note.ID] = note
	s.mutex.Unlock()

	log.Printf("Note created successfully: %s", note.ID)
	return note.Clone(), nil
}

// UpdateNote replaces the title and contents of an existing note
func (s *NoteStore) UpdateNote(id, title string, contents []models.Block) (*models.Note, error) {
	s.mutex.RLock()
	existing, exists := s.notes[id]
	s.mutex.RUnlock()
	if !exists {
		return nil, errors.ErrNoteNotFound.WithContext("noteId", id)
	}

	note := existing.Clone()
	note.Title = title
	note.Contents = models.CloneBlocks(nonNil(contents))
	note.UpdatedAt = s.now()

	if err := s.saveNote(note); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.notes[id] = note
	s.mutex.Unlock()

	log.Printf("Note updated successfully: %s", id)
	return note.Clone(), nil
}

// GetNote retrieves a note by ID
func (s *NoteStore) GetNote(id string) (*models.Note, error) {
	s.mutex.RLock()
	note, exists := s.notes[id]
	s.mutex.RUnlock()

	if !exists {
		return nil, errors.ErrNoteNotFound.WithContext("noteId", id)
	}
	return note.Clone(), nil
}

// GetAllNotes returns all notes sorted by update time, newest first
func (s *NoteStore) GetAllNotes() []*models.Note {
	return s.filter(func(*models.Note) bool { return true })
}

// SearchNotes returns the notes whose title or text blocks contain query
func (s *NoteStore) SearchNotes(query string) []*models.Note {
	query = strings.ToLower(query)
	return s.filter(func(n *models.Note) bool {
		if strings.Contains(strings.ToLower(n.Title), query) {
			return true
		}
		for _, b := range n.Contents {
			if b.Type == models.BlockText && strings.Contains(strings.ToLower(b.Text), query) {
				return true
			}
		}
		return false
	})
}

func (s *NoteStore) filter(keep func(*models.Note) bool) []*models.Note {
	s.mutex.RLock()
	notes := make([]*models.Note, 0, len(s.notes))
	for _, note := range s.notes {
		if keep(note) {
			notes = append(notes, note.Clone())
		}
	}
	s.mutex.RUnlock()

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes
}

// DeleteNote deletes a note by ID
func (s *NoteStore) DeleteNote(id string) error {
	filename := s.notePath(id)

	s.mutex.Lock()
	_, exists := s.notes[id]
	if !exists {
		s.mutex.Unlock()
		return errors.ErrNoteNotFound.WithContext("noteId", id)
	}
	delete(s.notes, id)
	delete(s.fileModTimes, filename)
	s.mutex.Unlock()

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return errors.ErrFileWriteFailed.WithCause(err).WithContext("noteId", id)
	}
	return nil
}

// RefreshFromDisk forces a full refresh from disk
func (s *NoteStore) RefreshFromDisk() error {
	return s.syncFromDisk()
}

// Close stops the watcher and any pending reloads
func (s *NoteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		// reload callbacks already running see closed and leave the
		// store untouched
		s.mutex.Lock()
		s.closed = true
		watcher := s.watcher
		s.mutex.Unlock()
		if watcher != nil {
			err = watcher.Close()
		}

		s.wg.Wait()
		s.debouncer.Clear()
	})
	return err
}

// saveNote writes a note to disk and records the modification time so the
// watcher skips the resulting event
func (s *NoteStore) saveNote(note *models.Note) error {
	filename := s.notePath(note.ID)

	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return errors.ErrFileWriteFailed.WithCause(err).WithContext("noteId", note.ID)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.ErrFileWriteFailed.WithCause(err).WithContext("noteId", note.ID)
	}

	if info, err := os.Stat(filename); err == nil {
		s.mutex.Lock()
		s.fileModTimes[filename] = info.ModTime()
		s.mutex.Unlock()
	}
	return nil
}

func (s *NoteStore) notePath(id string) string {
	return filepath.Join(s.dataDir, id+".json")
}

func readNoteFile(path string) (*models.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var note models.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, err
	}
	if note.ID == "" {
		note.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &note, nil
}

func nonNil(blocks []models.Block) []models.Block {
	if blocks == nil {
		return []models.Block{}
	}
	return blocks
}
