// Command mtbagcheck lists the members of a ustar archive, or verifies
// a BagIt package's fixity, against a tar stream that may be local or
// wrapped inside another file at a fixed offset. The -sam option is
// accepted but always fails: this command configures no
// hierarchical-storage collaborator.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"

	"github.com/ndlib/mtbagcheck/bagit"
	"github.com/ndlib/mtbagcheck/config"
	"github.com/ndlib/mtbagcheck/digest"
	"github.com/ndlib/mtbagcheck/report"
	"github.com/ndlib/mtbagcheck/resolver"
	"github.com/ndlib/mtbagcheck/tarfile"
)

func main() {
	if dsn := os.Getenv("MTBAGCHECK_SENTRY_DSN"); dsn != "" {
		if err := raven.SetDSN(dsn); err != nil {
			log.Println("sentry: could not set DSN:", err)
		}
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}

	if err := run(cfg); err != nil {
		log.Println("fatal:", err)
		raven.CaptureError(err, map[string]string{"archive": cfg.Archive, "mode": cfg.Mode})
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	loc, err := locate(cfg)
	if err != nil {
		return errors.Wrap(err, "resolve archive")
	}
	if loc.Staged {
		defer resolver.Cleanup(loc)
	}

	w, err := tarfile.Open(loc.BackingPath, loc.StartOffset)
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer w.Close()

	table := tarfile.NewRecordTable()
	pool := tarfile.NewNamePool()
	if err := w.Walk(table, pool); err != nil {
		return errors.Wrap(err, "walk archive")
	}

	switch cfg.Mode {
	case "tar":
		return runTar(cfg, w, table)
	case "bag":
		return runBag(cfg, w, table)
	default:
		return fmt.Errorf("config: unknown mode %q", cfg.Mode)
	}
}

// locate resolves cfg.Archive to a local, mmap-able file and a starting
// byte offset. The sam case is an external collaborator by design: the
// CLI surface this tool documents carries no bucket/credential flags,
// so a caller wanting HSM resolution supplies its own resolver.HSM and
// calls resolver.Sam directly rather than through this binary.
func locate(cfg config.Config) (resolver.Location, error) {
	switch {
	case cfg.Sam:
		return resolver.Location{}, errors.New("sam resolution requires a configured HSM collaborator, not available from this command line")
	case cfg.Wrapped != 0:
		return resolver.Wrapped(cfg.Archive, cfg.Wrapped)
	default:
		return resolver.Plain(cfg.Archive)
	}
}

func runTar(cfg config.Config, w *tarfile.Walker, table *tarfile.RecordTable) error {
	newHash, err := digest.Lookup(cfg.Algo)
	if err != nil {
		return err
	}
	digestAll(w, table, cfg.Threads, newHash, func(*tarfile.Record) bool { return true })
	report.WriteTarListing(os.Stdout, table)
	return nil
}

func runBag(cfg config.Config, w *tarfile.Walker, table *tarfile.RecordTable) error {
	bag, err := bagit.Resolve(table)
	if err != nil {
		return err
	}
	data := w.Data()

	if cfg.Get != "" {
		content, err := bag.Member(cfg.Get, table, data)
		if err != nil {
			return err
		}
		printLines(report.MemberLines(content))
		return nil
	}

	if cfg.Empties {
		printLines(report.EmptiesLines(bag.Empties(table)))
		return nil
	}

	bagInfo, err := bag.Member("baginfo", table, data)
	if err != nil {
		return err
	}

	if cfg.Fast {
		ok, expected, calculated := bag.VerifyFast(bagInfo)
		fmt.Println(report.BagFastLine(bagName(bag.Root), ok, expected, calculated))
		return nil
	}

	newHash, err := digest.Lookup(bag.Algo)
	if err != nil {
		return err
	}

	manifest, err := bag.Member("manifest", table, data)
	if err != nil {
		return err
	}
	bagit.BindManifest(bag.Root, manifest, table)

	if tagmanifest, err := bag.Member("tagmanifest", table, data); err == nil {
		bagit.BindTagManifest(tagmanifest, table)
	}

	dataPrefix := bag.Root + "/data/"
	digestAll(w, table, cfg.Threads, newHash, func(r *tarfile.Record) bool {
		return strings.Contains(r.Name, dataPrefix)
	})

	printLines(report.BagFullLines(bag.VerifyFull(table), cfg.Verbose))
	return nil
}

// digestAll submits every regular, non-empty record matching include to
// a fixed worker pool reading against w's shared memory-mapped view,
// and blocks until all of them have finished.
func digestAll(w *tarfile.Walker, table *tarfile.RecordTable, threads int, newHash digest.NewFunc, include func(*tarfile.Record) bool) {
	p := digest.NewPool(w.Data(), threads, newHash)
	for i := 0; i < table.Len(); i++ {
		r := table.At(i)
		if r.Type != tarfile.TypeRegular || r.Size == 0 || !include(r) {
			continue
		}
		p.Submit(digest.Job{Offset: r.Offset * tarfile.BlockSize, Size: r.Size, Result: &r.ComputedDigest})
	}
	p.CloseAndWait()
}

func bagName(root string) string {
	if i := strings.LastIndexByte(root, '/'); i >= 0 {
		return root[i+1:]
	}
	return root
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}
