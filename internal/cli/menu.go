package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/session"
	"rimloc/internal/usecase/translator"
)

// prompter reads one line after showing a prompt. *readline.Instance
// satisfies it.
type prompter interface {
	SetPrompt(p string)
	Readline() (string, error)
}

func newReadlinePrompter(in io.Reader, out io.Writer) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           readline.NewCancelableStdin(in),
		Stdout:          out,
		HistoryFile:     filepath.Join(os.TempDir(), "rimloc_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

// errBack returns from a submenu to the main menu.
var errBack = errors.New("back")

func ask(p prompter, prompt string) (string, error) {
	p.SetPrompt(prompt)
	line, err := p.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", errBack
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askDefault returns def when the answer is empty.
func askDefault(p prompter, prompt, def string) (string, error) {
	v, err := ask(p, fmt.Sprintf("%s [%s]> ", prompt, def))
	if v == "" && err == nil {
		v = def
	}
	return v, err
}

type menuItem struct {
	key   string
	label string
	run   func(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error
}

func (c *cli) menuItems() []menuItem {
	return []menuItem{
		{"1", "Extract a mod", menuExtract},
		{"2", "Mods and progress", func(ctx context.Context, s *bootstrap.Services, _ prompter, w io.Writer) error {
			return listMods(ctx, s, w)
		}},
		{"3", "Batch translate a mod", menuTranslate},
		{"4", "Review and edit entries", func(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
			mod, err := pickMod(ctx, s, p, w)
			if err != nil {
				return err
			}
			return review(ctx, s, p, w, mod, 0)
		}},
		{"5", "Export translations", menuExport},
		{"6", "Search the glossary", menuGlossary},
		{"7", "Translation memory suggestions", menuMemory},
		{"8", "Resume a session", menuSessions},
		{"9", "Providers", menuProviders},
		{"b", "Back up the database", func(ctx context.Context, s *bootstrap.Services, _ prompter, w io.Writer) error {
			path, err := s.Backup(ctx, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s backup written to %s\n", ok(), path)
			return nil
		}},
	}
}

// menu runs the interactive loop until the user quits or input ends. The
// current position is auto-saved while it runs.
func (c *cli) menu(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	s.StartAutoSave(ctx)
	defer s.AutoSave.Stop()

	fmt.Fprintln(w, heading("RimWorld 汉化助手"))
	if last, err := s.Sessions.Latest(ctx); err == nil && last != nil {
		fmt.Fprintln(w, hint(fmt.Sprintf("last session: %s, page %d, saved %s", last.ModName, last.CurrentPage+1, ago(last.LastSave))))
	}
	items := c.menuItems()
	for {
		fmt.Fprintln(w)
		for _, it := range items {
			fmt.Fprintf(w, "  %s) %s\n", it.key, it.label)
		}
		fmt.Fprintln(w, "  q) Quit")
		choice, err := ask(p, "choose> ")
		switch {
		case errors.Is(err, errBack):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		if choice == "q" || choice == "0" {
			return nil
		}
		var picked *menuItem
		for i := range items {
			if items[i].key == choice {
				picked = &items[i]
			}
		}
		if picked == nil {
			fmt.Fprintln(w, warn("unknown choice "+strconv.Quote(choice)))
			continue
		}
		err = picked.run(ctx, s, p, w)
		switch {
		case err == nil, errors.Is(err, errBack):
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		default:
			fmt.Fprintln(w, ErrorLine(err))
		}
	}
}

// pickMod lists known mods and accepts a number or a name.
func pickMod(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) (string, error) {
	mods, err := s.Entries.Mods(ctx)
	if err != nil {
		return "", err
	}
	if len(mods) == 0 {
		fmt.Fprintln(w, hint("no mods yet, extract one first"))
		return "", errBack
	}
	for i, m := range mods {
		fmt.Fprintf(w, "  %d) %s  %s\n", i+1, m.Name, faint(fmt.Sprintf("%.1f%%", m.Stats.Percent())))
	}
	v, err := ask(p, "mod> ")
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errBack
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(mods) {
		return mods[n-1].Name, nil
	}
	for _, m := range mods {
		if strings.EqualFold(m.Name, v) {
			return m.Name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mod %q", domain.ErrNotFound, v)
}

func menuExtract(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	path, err := ask(p, "mod folder> ")
	if err != nil {
		return err
	}
	if path == "" {
		return errBack
	}
	lang, err := askDefault(p, "source language", "English")
	if err != nil {
		return err
	}
	return extractOne(ctx, s, w, path, lang)
}

func menuTranslate(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	mod, err := pickMod(ctx, s, p, w)
	if err != nil {
		return err
	}
	provider, err := askDefault(p, "provider", s.Config.DefaultProvider)
	if err != nil {
		return err
	}
	return translateMod(ctx, s, w, w, mod, translateFlags{provider: provider})
}

func menuExport(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	mod, err := pickMod(ctx, s, p, w)
	if err != nil {
		return err
	}
	return exportXML(ctx, s, w, mod, "", "ChineseSimplified")
}

func menuGlossary(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	kw, err := ask(p, "term (empty lists all)> ")
	if err != nil {
		return err
	}
	terms, err := s.Glossary.Search(ctx, kw, "", 50)
	if err != nil {
		return err
	}
	printTerms(w, terms)
	return nil
}

func menuMemory(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	text, err := ask(p, "english text> ")
	if err != nil {
		return err
	}
	if text == "" {
		return errBack
	}
	ms, err := s.Memory.Suggestions(ctx, text, 5)
	if err != nil {
		return err
	}
	printMatches(w, ms)
	return nil
}

func menuSessions(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	all, err := s.Sessions.List(ctx)
	if err != nil {
		return err
	}
	printSessions(w, all)
	if len(all) == 0 {
		return nil
	}
	mod, err := askDefault(p, "resume mod", all[0].ModName)
	if err != nil {
		return err
	}
	r, err := s.Sessions.Resume(ctx, mod)
	if err != nil {
		return err
	}
	return review(ctx, s, p, w, r.Session.ModName, r.Session.CurrentPage)
}

func menuProviders(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer) error {
	api := providerAPI(s)
	for _, d := range api.List() {
		state := red("unusable")
		if d.Usable {
			state = green("ready")
		}
		def := ""
		if d.Default {
			def = " (default)"
		}
		fmt.Fprintf(w, "  %-10s %s%s %s\n", d.Name, state, def, faint(d.Model))
	}
	name, err := ask(p, "test provider (empty skips)> ")
	if err != nil || name == "" {
		return err
	}
	res, err := api.Test(name)
	if err != nil {
		return err
	}
	if !res.Ok {
		return errors.New(res.Error)
	}
	fmt.Fprintf(w, "%s %s\n", ok(), res.Translation)
	return nil
}

const reviewHelp = "n next, p previous, g <page> go to, e <id> edit, t <id> machine translate, s <id> skip, r <id> reset, q quit"

// review pages through a mod's entries. Each page change is tracked for
// auto-save and the final position is saved on the way out.
func review(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer, mod string, page int) error {
	modPath := ""
	if rec, err := s.Entries.Open(ctx, mod); err == nil {
		modPath = rec.ModPath
	}
	size := s.Sessions.PageSize()
	defer func() {
		if err := s.Tracker.Save(context.Background()); err != nil {
			fmt.Fprintln(w, warn("session not saved: "+err.Error()))
		}
	}()
	for {
		st, err := s.Entries.Progress(ctx, mod)
		if err != nil {
			return err
		}
		pages := max((st.Total+size-1)/size, 1)
		page = min(max(page, 0), pages-1)
		s.Tracker.Track(session.Position{ModName: mod, ModPath: modPath, Page: page})

		fmt.Fprintf(w, "\n%s page %d/%d  %s\n", heading(mod), page+1, pages, faint(progressLine(st)))
		if err := printEntries(ctx, s, w, domain.EntryFilter{ModName: mod, Limit: size, Offset: page * size}); err != nil {
			return err
		}
		fmt.Fprintln(w, hint(reviewHelp))

		line, err := ask(p, "review> ")
		if err != nil {
			return err
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "", "n":
			page++
		case "p":
			page--
		case "g":
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(w, warn("page number expected"))
				continue
			}
			page = n - 1
		case "q":
			return nil
		case "e", "t", "s", "r":
			id, err := parseID(arg)
			if err != nil {
				fmt.Fprintln(w, warn(err.Error()))
				continue
			}
			if err := reviewAction(ctx, s, p, w, cmd, id); err != nil {
				if errors.Is(err, io.EOF) {
					return err
				}
				if !errors.Is(err, errBack) {
					fmt.Fprintln(w, ErrorLine(err))
				}
			}
		default:
			fmt.Fprintln(w, warn("unknown command "+strconv.Quote(cmd)))
		}
	}
}

func reviewAction(ctx context.Context, s *bootstrap.Services, p prompter, w io.Writer, cmd string, id int64) error {
	switch cmd {
	case "s":
		return s.Entries.Skip(ctx, id)
	case "r":
		return s.Entries.Reset(ctx, id)
	}
	e, err := s.Entries.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", heading(e.XMLPath), faint(e.FilePath))
	fmt.Fprintf(w, "  EN: %s\n", e.OriginalText)
	if e.Comment != "" && e.Comment != e.OriginalText {
		fmt.Fprintf(w, "  %s\n", faint("note: "+e.Comment))
	}
	if e.Translated() {
		fmt.Fprintf(w, "  ZH: %s\n", e.TranslatedText)
	}

	if cmd == "t" {
		out, err := s.Translator.Translate(ctx, s.Config.DefaultProvider, translator.UnitOf(e))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %s\n", cyan("→"), out.Text)
		yes, err := askDefault(p, "accept (y/n)", "y")
		if err != nil {
			return err
		}
		if !strings.EqualFold(yes, "y") {
			return errBack
		}
		_, err = s.Entries.Edit(ctx, id, out.Text)
		return err
	}

	ms, err := s.Memory.Suggestions(ctx, e.OriginalText, 5)
	if err != nil {
		return err
	}
	for i, m := range ms {
		fmt.Fprintf(w, "  %d) %s %s\n", i+1, m.Target, faint(fmt.Sprintf("%s %.0f%%", m.Kind, m.Similarity*100)))
	}
	text, err := ask(p, "translation (number picks a suggestion, empty cancels)> ")
	if err != nil {
		return err
	}
	if text == "" {
		return errBack
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(ms) {
		text = ms[n-1].Target
	}
	e, err = s.Entries.Edit(ctx, id, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s = %s\n", ok(), e.XMLPath, e.TranslatedText)
	return nil
}
