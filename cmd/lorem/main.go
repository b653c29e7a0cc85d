// Command lorem seeds the notes directory with a sample note to open in
// the editor.
package main

import (
	"fmt"
	"os"

	"notedit/pkg/config"
	"notedit/pkg/models"
	"notedit/pkg/storage"
)

// loremIpsum returns sample text blocks
func loremIpsum() []models.Block {
	return []models.Block{
		models.TextBlock("Lorem ipsum dolor sit amet, consectetur adipiscing elit."),
		models.TextBlock("Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.\n" +
			"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."),
		models.TextBlock("Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur."),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewNoteStore(cfg.NotesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open notes: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	note, err := store.CreateNote("Lorem Ipsum", loremIpsum())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create note: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated note with ID: %s\n", note.ID)
}
