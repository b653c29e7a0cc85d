package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"notedit/pkg/editor"
	"notedit/pkg/errors"
	"notedit/pkg/media"
	"notedit/pkg/models"
	"notedit/pkg/view"
)

const maxLineBytes = 1 << 20

const helpText = `Commands:
  title <text>                 set the title
  text <index> <text>          set the text block at index
  attach image|audio|video <path>
                               attach a media file
  delete <index>               remove the block at index
  show                         print the note
  save                         save and close
  cancel                       discard changes and close
  help                         show this help`

// session drives one editor from line-oriented input
type session struct {
	ed   *editor.Editor
	in   *bufio.Scanner
	out  io.Writer
	cols int
	done bool
}

func newSession(in *bufio.Scanner, out io.Writer, cols int) *session {
	in.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &session{in: in, out: out, cols: cols}
}

// navigator ends the session once the editor navigates back
func (s *session) navigator() editor.Navigator {
	return editor.NavigatorFunc(func() { s.done = true })
}

// observer prints the saving indicator once a save is actually running
func (s *session) observer() func(editor.State) {
	return func(state editor.State) {
		if state == editor.StateSaving {
			fmt.Fprintln(s.out, view.SavingIndicator)
		}
	}
}

// confirm asks a yes/no question on the session's input
func (s *session) confirm(prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N] ", prompt)
	if !s.in.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func (s *session) run(ctx context.Context) error {
	s.show()

	for !s.done {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return s.in.Err()
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if err := s.handle(ctx, line); err != nil {
			fmt.Fprintln(s.out, errors.UserMessage(err))
		}
	}
	return nil
}

func (s *session) handle(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "title":
		return s.edited(s.ed.SetTitle(rest))

	case "text":
		index, value, err := indexArg(rest)
		if err != nil {
			return err
		}
		return s.edited(s.ed.SetBlockText(index, unescape(value)))

	case "attach":
		kind, path, _ := strings.Cut(rest, " ")
		blockType := models.BlockType(kind)
		if !blockType.IsMedia() || strings.TrimSpace(path) == "" {
			return usage("attach image|audio|video <path>")
		}
		file, err := media.FromPath(strings.TrimSpace(path))
		if err != nil {
			return err
		}
		return s.edited(s.ed.AttachMedia(ctx, blockType, file))

	case "delete":
		index, _, err := indexArg(rest)
		if err != nil {
			return err
		}
		return s.edited(s.ed.DeleteBlock(index))

	case "show":
		s.show()
		return nil

	case "save":
		if err := s.ed.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Saved.")
		return nil

	case "cancel", "quit":
		if s.ed.RequestCancel(editor.ConfirmFunc(s.confirm)) == editor.CancelConfirmed {
			fmt.Fprintln(s.out, "Changes discarded.")
		}
		return nil

	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	}

	return usage(fmt.Sprintf("unknown command %q, type help", cmd))
}

// edited re-renders after a successful change
func (s *session) edited(err error) error {
	if err != nil {
		return err
	}
	s.show()
	return nil
}

func (s *session) show() {
	if err := view.Render(s.out, s.ed.Snapshot(), s.cols); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

// indexArg splits "<index> <rest>" and parses the index
func indexArg(arg string) (int, string, error) {
	first, rest, _ := strings.Cut(arg, " ")
	index, err := strconv.Atoi(first)
	if err != nil {
		return 0, "", usage("expected a block index")
	}
	return index, rest, nil
}

// unescape turns a literal \n typed on one line into a line break
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func usage(msg string) error {
	return errors.New(errors.ErrTypeValidation, "USAGE", msg)
}
