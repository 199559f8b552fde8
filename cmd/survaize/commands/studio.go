package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/actions"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/editor"
	"github.com/survaize/survaize-client/internal/preflight"
	"github.com/survaize/survaize-client/internal/schema"
	"github.com/survaize/survaize-client/internal/session"
)

var studioCmd = &cobra.Command{
	Use:   "studio [file]",
	Short: "Open, review, edit and save a questionnaire interactively",
	Long: `Start an interactive session. Type "help" for the list of commands. When a
file is given it is opened first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStudio,
}

func init() {
	rootCmd.AddCommand(studioCmd)
}

func runStudio(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	provider, err := schema.NewProvider()
	if err != nil {
		return err
	}

	st := newStudio(client, client, provider, cfg.Editor.Command)
	if len(args) == 1 {
		st.exec(cmd.Context(), "open "+args[0])
	}
	return st.loop(cmd.Context(), os.Stdin)
}

const studioHelp = `Commands:
  open <file>           open a PDF or JSON questionnaire
  show                  show the current view
  raw                   toggle between structured and raw JSON view
  edit                  edit the raw JSON in $EDITOR
  load <file>           replace the raw JSON with the contents of a file
  markers               list schema markers for the raw JSON
  complete <offset>     suggest what can be typed at a byte offset
  save <json|cspro> [dir]
  dismiss               clear error messages
  quit`

// studio is the interactive front end of one session.
type studio struct {
	session   *session.Session
	editor    *editor.Editor
	open      *actions.OpenAction
	save      *actions.SaveAction
	editorCmd string
	out       io.Writer
	runEditor func(ctx context.Context, path string) error
}

func newStudio(reader domain.Reader, saver domain.Saver, advisor editor.Advisor, editorCmd string) *studio {
	sess := session.New(logger)
	st := &studio{
		session:   sess,
		editor:    editor.New(sess, advisor),
		open:      actions.NewOpenAction(reader, sess, preflight.NewChecker(logger), logger),
		save:      actions.NewSaveAction(saver, sess, logger),
		editorCmd: editorCmd,
		out:       ui.Writer(),
	}
	st.runEditor = st.spawnEditor
	return st
}

func (s *studio) loop(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Survaize studio. Type \"help\" for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			ui.Newline()
			return scanner.Err()
		}
		if !s.exec(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// exec runs one command line and reports whether the studio should go on.
func (s *studio) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(s.out, studioHelp)
	case "open":
		if len(fields) < 2 {
			ui.Error("usage: open <file>")
			break
		}
		path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "open"))
		if _, err := openWithProgress(ctx, s.open, s.session, path); err != nil {
			ui.Error("%s", err)
		}
	case "show":
		_ = s.editor.Render(s.out)
	case "raw":
		if s.editor.ToggleRaw() {
			ui.Info("Raw JSON view")
		} else {
			ui.Info("Structured view")
		}
		_ = s.editor.Render(s.out)
	case "edit":
		s.edit(ctx)
	case "load":
		if len(fields) < 2 {
			ui.Error("usage: load <file>")
			break
		}
		data, err := os.ReadFile(fields[1])
		if err != nil {
			ui.Error("%s", err)
			break
		}
		s.change(string(data))
	case "markers":
		s.printMarkers()
	case "complete":
		if len(fields) < 2 {
			ui.Error("usage: complete <offset>")
			break
		}
		offset, err := strconv.Atoi(fields[1])
		if err != nil {
			ui.Error("invalid offset %q", fields[1])
			break
		}
		for _, sug := range s.editor.Suggestions(offset) {
			if sug.Detail != "" {
				fmt.Fprintf(s.out, "  %s (%s)\n", sug.Label, sug.Detail)
			} else {
				fmt.Fprintf(s.out, "  %s\n", sug.Label)
			}
		}
	case "save":
		if len(fields) < 2 {
			ui.Error("usage: save <json|cspro> [dir]")
			break
		}
		dir := "."
		if len(fields) > 2 {
			dir = fields[2]
		}
		res, err := s.save.Run(ctx, domain.Format(fields[1]), dir)
		if err != nil {
			ui.Error("%s", s.save.Error())
			break
		}
		if res.Artifact.Fallback {
			ui.Warning("Save endpoint unavailable, wrote a local JSON copy")
		}
		ui.Success("Saved %s", res.Path)
	case "dismiss":
		s.open.Dismiss()
		s.save.Dismiss()
	default:
		ui.Error("unknown command %q, type \"help\"", fields[0])
	}
	return true
}

// change feeds text to the raw buffer, entering raw mode if needed.
func (s *studio) change(text string) {
	if !s.editor.IsRaw() {
		s.editor.ToggleRaw()
	}
	if err := s.editor.Change(text); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Err != nil {
			ui.Error("%s: %s", de.Message, de.Err)
		} else {
			ui.Error("%s", err)
		}
		return
	}
	ui.Success("Questionnaire updated")
	s.printMarkers()
}

func (s *studio) printMarkers() {
	markers := s.editor.Markers()
	if len(markers) == 0 {
		ui.Info("No schema markers")
		return
	}
	for _, m := range markers {
		ui.Warning("%s", m)
	}
}

// edit round-trips the raw buffer through an external editor.
func (s *studio) edit(ctx context.Context) {
	if s.session.Document() == nil && !s.editor.IsRaw() {
		ui.Error("%s", editor.Placeholder)
		return
	}
	if !s.editor.IsRaw() {
		s.editor.ToggleRaw()
	}

	f, err := os.CreateTemp("", "survaize-*.json")
	if err != nil {
		ui.Error("%s", err)
		return
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(s.editor.Buffer()); err != nil {
		f.Close()
		ui.Error("%s", err)
		return
	}
	f.Close()

	if err := s.runEditor(ctx, f.Name()); err != nil {
		ui.Error("editor failed: %s", err)
		return
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		ui.Error("%s", err)
		return
	}
	s.change(string(data))
}

func (s *studio) spawnEditor(ctx context.Context, path string) error {
	parts := strings.Fields(s.editorCmd)
	if len(parts) == 0 {
		return errors.New("no editor configured, set EDITOR")
	}
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}
