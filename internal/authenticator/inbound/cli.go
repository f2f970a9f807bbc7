package inbound

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/authenticator/usecase"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
)

var ErrUsage = errors.New("usage error")

type uc interface {
	ListAccounts(ctx context.Context) ([]entity.Account, error)
	AddAccount(ctx context.Context, in usecase.AddAccountInput) (*entity.Account, error)
	UpdateAccount(ctx context.Context, in usecase.UpdateAccountInput) (*entity.Account, error)
	DeleteAccounts(ctx context.Context, ids []string) error
	Codes(ctx context.Context, at time.Time) ([]usecase.Display, error)
	ImportURI(ctx context.Context, raw string) (*usecase.RestoreResult, error)
	ImportText(ctx context.Context, text string) (*usecase.ImportTextResult, error)
	ImportFile(ctx context.Context, in usecase.ImportFileInput) (*usecase.RestoreResult, error)
	ExportBackup(ctx context.Context, in usecase.ExportBackupInput) (*usecase.ExportBackupOutput, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	AccountURI(ctx context.Context, id string) (string, error)
	AccountQRCode(ctx context.Context, id string, size int) ([]byte, error)
	ArchiveBackup(ctx context.Context, in usecase.ExportBackupInput) (*storage.ObjectInfo, error)
	ListArchives(ctx context.Context) ([]storage.ObjectInfo, error)
	RestoreArchive(ctx context.Context, in usecase.RestoreArchiveInput) (*usecase.RestoreResult, error)
	DeleteArchive(ctx context.Context, in usecase.DeleteArchiveInput) error
}

// WatchFunc streams fresh codes until ctx is done.
type WatchFunc func(ctx context.Context) <-chan []usecase.Display

// CLI maps command-line arguments onto usecase calls.
type CLI struct {
	uc    uc
	watch WatchFunc
	in    io.Reader
	out   io.Writer
	err   io.Writer
}

func NewCLI(u uc, watch WatchFunc, in io.Reader, out, errOut io.Writer) *CLI {
	return &CLI{uc: u, watch: watch, in: in, out: out, err: errOut}
}

var usages = map[string]string{
	"codes":           "codes",
	"watch":           "watch",
	"list":            "list",
	"add":             "add [-issuer i] [-label l] [-algorithm a] [-digits n] [-period s] [-folder f] (-secret s | uri)",
	"edit":            "edit [-issuer i] [-label l] [-folder f] [-order n] id",
	"delete":          "delete id...",
	"import":          "import [-password p] (file.json | file.csv | -)",
	"export":          "export [-csv] [-password p] file",
	"uri":             "uri id",
	"qr":              "qr [-size px] id file.png",
	"archive":         "archive -password p",
	"archives":        "archives",
	"restore-archive": "restore-archive -password p key",
	"delete-archive":  "delete-archive key",
}

var commands = map[string]func(c *CLI, ctx context.Context, args []string) error{
	"codes":           (*CLI).codes,
	"watch":           (*CLI).watchCodes,
	"list":            (*CLI).list,
	"add":             (*CLI).add,
	"edit":            (*CLI).edit,
	"delete":          (*CLI).delete,
	"import":          (*CLI).importFile,
	"export":          (*CLI).export,
	"uri":             (*CLI).uri,
	"qr":              (*CLI).qr,
	"archive":         (*CLI).archive,
	"archives":        (*CLI).archives,
	"restore-archive": (*CLI).restoreArchive,
	"delete-archive":  (*CLI).deleteArchive,
}

// Usage writes the command summary.
func (c *CLI) Usage() {
	names := make([]string, 0, len(usages))
	for name := range usages {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.err, "usage:")
	for _, name := range names {
		fmt.Fprintf(c.err, "\tsigil %s\n", usages[name])
	}
}

// Run executes one command. No arguments prints the current codes.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"codes"}
	}

	run, ok := commands[args[0]]
	if !ok {
		c.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	return run(c, ctx, args[1:])
}

func (c *CLI) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.err)
	fs.Usage = func() { fmt.Fprintf(c.err, "usage: sigil %s\n", usages[name]) }
	return fs
}

func (c *CLI) parse(fs *flag.FlagSet, args []string, nargs func(int) bool) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if !nargs(fs.NArg()) {
		fs.Usage()
		return ErrUsage
	}
	return nil
}

func exactly(n int) func(int) bool { return func(got int) bool { return got == n } }
func atLeast(n int) func(int) bool { return func(got int) bool { return got >= n } }

func (c *CLI) codes(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("codes"), args, exactly(0)); err != nil {
		return err
	}

	displays, err := c.uc.Codes(ctx, time.Time{})
	if err != nil {
		return err
	}

	return c.printCodes(displays)
}

func (c *CLI) printCodes(displays []usecase.Display) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, d := range displays {
		code := d.Code
		if d.Err != nil {
			code = "error: " + d.Err.Error()
		}
		remaining := int(d.Remaining*float64(d.Account.Period) + 0.5)
		fmt.Fprintf(tw, "%s\t%2ds\t%s\n", code, remaining, displayName(d.Account))
	}
	return tw.Flush()
}

func (c *CLI) watchCodes(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("watch"), args, exactly(0)); err != nil {
		return err
	}
	if c.watch == nil {
		return fmt.Errorf("%w: watch is not available", ErrUsage)
	}

	for displays := range c.watch(ctx) {
		fmt.Fprint(c.out, "\033[H\033[2J")
		if err := c.printCodes(displays); err != nil {
			return err
		}
	}
	return nil
}

func displayName(a entity.Account) string {
	switch {
	case a.Issuer != "" && a.Label != "":
		return a.Issuer + " (" + a.Label + ")"
	case a.Issuer != "":
		return a.Issuer
	default:
		return a.Label
	}
}

func (c *CLI) list(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("list"), args, exactly(0)); err != nil {
		return err
	}

	accounts, err := c.uc.ListAccounts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tISSUER\tLABEL\tFOLDER\tALGORITHM\tDIGITS\tPERIOD")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", a.ID, a.Issuer, a.Label, a.Folder, a.Algorithm, a.Digits, a.Period)
	}
	return tw.Flush()
}

func (c *CLI) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	var in usecase.AddAccountInput
	fs.StringVar(&in.Issuer, "issuer", "", "issuer name")
	fs.StringVar(&in.Label, "label", "", "account label")
	fs.StringVar(&in.Secret, "secret", "", "base32 secret")
	fs.StringVar(&in.Algorithm, "algorithm", "", "SHA1, SHA256, SHA512 or MD5")
	fs.IntVar(&in.Digits, "digits", 0, "code length")
	fs.IntVar(&in.Period, "period", 0, "time step in seconds")
	fs.StringVar(&in.Folder, "folder", "", "folder name")
	if err := c.parse(fs, args, func(n int) bool { return n <= 1 }); err != nil {
		return err
	}

	if fs.NArg() == 1 {
		res, err := c.uc.ImportURI(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		c.printRestore(*res, -1)
		return nil
	}

	acc, err := c.uc.AddAccount(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s %s\n", acc.ID, displayName(*acc))
	return nil
}

func (c *CLI) edit(ctx context.Context, args []string) error {
	fs := c.flags("edit")
	issuer := fs.String("issuer", "", "new issuer")
	label := fs.String("label", "", "new label")
	folder := fs.String("folder", "", "new folder")
	order := fs.Int("order", -1, "new position")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	in := usecase.UpdateAccountInput{ID: fs.Arg(0)}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "issuer":
			in.Issuer = issuer
		case "label":
			in.Label = label
		case "folder":
			in.Folder = folder
		case "order":
			in.Order = order
		}
	})

	acc, err := c.uc.UpdateAccount(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated %s %s\n", acc.ID, displayName(*acc))
	return nil
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	fs := c.flags("delete")
	if err := c.parse(fs, args, atLeast(1)); err != nil {
		return err
	}

	return c.uc.DeleteAccounts(ctx, fs.Args())
}

func (c *CLI) importFile(ctx context.Context, args []string) error {
	fs := c.flags("import")
	password := fs.String("password", "", "backup password")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	name := fs.Arg(0)
	if name == "-" {
		text, err := io.ReadAll(c.in)
		if err != nil {
			return err
		}
		res, err := c.uc.ImportText(ctx, string(text))
		if err != nil {
			return err
		}
		c.printRestore(res.RestoreResult, res.Failed)
		return nil
	}

	// #nosec G304 -- path comes from the command line.
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	res, err := c.uc.ImportFile(ctx, usecase.ImportFileInput{Name: name, Data: data, Password: *password})
	if err != nil {
		return err
	}
	c.printRestore(*res, -1)
	return nil
}

func (c *CLI) printRestore(res usecase.RestoreResult, failed int) {
	msg := fmt.Sprintf("restored %d, skipped %d duplicate(s)", res.Restored, res.Skipped)
	if failed >= 0 {
		msg += fmt.Sprintf(", %d unreadable line(s)", failed)
	}
	fmt.Fprintln(c.out, msg)
}

func (c *CLI) export(ctx context.Context, args []string) error {
	fs := c.flags("export")
	asCSV := fs.Bool("csv", false, "write plaintext csv instead of an encrypted backup")
	password := fs.String("password", "", "backup password")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	var data []byte
	if *asCSV {
		out, err := c.uc.ExportCSV(ctx)
		if err != nil {
			return err
		}
		data = out
	} else {
		out, err := c.uc.ExportBackup(ctx, usecase.ExportBackupInput{Password: *password})
		if err != nil {
			return err
		}
		data = out.Data
	}

	path := fs.Arg(0)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *CLI) uri(ctx context.Context, args []string) error {
	fs := c.flags("uri")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	uri, err := c.uc.AccountURI(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, uri)
	return nil
}

func (c *CLI) qr(ctx context.Context, args []string) error {
	fs := c.flags("qr")
	size := fs.Int("size", 0, "image size in pixels")
	if err := c.parse(fs, args, exactly(2)); err != nil {
		return err
	}

	img, err := c.uc.AccountQRCode(ctx, fs.Arg(0), *size)
	if err != nil {
		return err
	}
	return os.WriteFile(fs.Arg(1), img, 0o600)
}

func (c *CLI) archive(ctx context.Context, args []string) error {
	fs := c.flags("archive")
	password := fs.String("password", "", "backup password")
	if err := c.parse(fs, args, exactly(0)); err != nil {
		return err
	}

	info, err := c.uc.ArchiveBackup(ctx, usecase.ExportBackupInput{Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "archived %s/%s (%d bytes)\n", info.Bucket, info.Key, info.Size)
	return nil
}

func (c *CLI) archives(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("archives"), args, exactly(0)); err != nil {
		return err
	}

	list, err := c.uc.ListArchives(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func (c *CLI) restoreArchive(ctx context.Context, args []string) error {
	fs := c.flags("restore-archive")
	password := fs.String("password", "", "backup password")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	res, err := c.uc.RestoreArchive(ctx, usecase.RestoreArchiveInput{Key: strings.TrimSpace(fs.Arg(0)), Password: *password})
	if err != nil {
		return err
	}
	c.printRestore(*res, -1)
	return nil
}

func (c *CLI) deleteArchive(ctx context.Context, args []string) error {
	fs := c.flags("delete-archive")
	if err := c.parse(fs, args, exactly(1)); err != nil {
		return err
	}

	key := strings.TrimSpace(fs.Arg(0))
	if err := c.uc.DeleteArchive(ctx, usecase.DeleteArchiveInput{Key: key}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %s\n", key)
	return nil
}
