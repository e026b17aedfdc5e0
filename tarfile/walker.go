package tarfile

import (
	"log"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// prefetchWindow is how far ahead the walker advises the kernel to
// pre-fault pages.
const prefetchWindow = 8 << 20 // 8 MiB

// Walker streams 512-byte blocks from a memory-mapped backing file and
// assembles a RecordTable. The backing file may be a plain tar, or a tar
// wrapped inside another file at startOffset bytes (the HSM and
// "--wrapped" cases share this same mechanism).
type Walker struct {
	data        mmap.MMap
	file        *os.File
	startOffset int64
	totalBytes  int64
}

// Open memory-maps path read-only and returns a Walker whose tar stream
// begins startOffset bytes into the file.
func Open(path string, startOffset int64) (*Walker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "tarfile: open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "tarfile: stat %s", path)
	}
	var m mmap.MMap
	if fi.Size() > 0 {
		m, err = mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "tarfile: mmap %s", path)
		}
		unix.Madvise(m, unix.MADV_SEQUENTIAL)
	}
	return &Walker{
		data:        m,
		file:        f,
		startOffset: startOffset,
		totalBytes:  fi.Size(),
	}, nil
}

// Close unmaps the backing file and closes its descriptor.
func (w *Walker) Close() error {
	var err error
	if w.data != nil {
		err = w.data.Unmap()
	}
	cerr := w.file.Close()
	if err == nil {
		err = cerr
	}
	return err
}

// TotalBytes returns the size of the whole backing file, including any
// bytes before startOffset.
func (w *Walker) TotalBytes() int64 { return w.totalBytes }

// File returns the underlying backing file, for callers that need their
// own positional reads against it. The digest worker pool does not use
// it; it reads from Data.
func (w *Walker) File() *os.File { return w.file }

// Data returns the whole memory-mapped backing view, the single shared
// read-only buffer the digest worker pool and the bag member reader
// both read directly out of.
func (w *Walker) Data() []byte { return w.data }

func (w *Walker) blockAt(pos int64) *Block {
	var b Block
	copy(b[:], w.data[pos:pos+BlockSize])
	return &b
}

// Walk scans the tar stream beginning at startOffset, appending one
// Record per member to table and interning names into pool.
//
// Structural header errors are tolerated per the validator's propagation
// policy: a bad-magic or bad-checksum block is logged and skipped by one
// block, never aborting the walk. A malformed size field is fatal, since
// it indicates the archive itself is corrupt rather than merely padded.
func (w *Walker) Walk(table *RecordTable, pool *NamePool) error {
	cursor := w.startOffset
	sawEmpty := false
	advised := w.startOffset

	for {
		if cursor+BlockSize > w.totalBytes {
			return nil
		}
		if cursor-advised >= prefetchWindow && w.totalBytes-cursor >= prefetchWindow {
			// madvise needs a page-aligned start; the mapping itself is.
			from := cursor &^ int64(os.Getpagesize()-1)
			unix.Madvise(w.data[from:cursor+prefetchWindow], unix.MADV_WILLNEED)
			advised = cursor
		}

		block := w.blockAt(cursor)
		switch block.Classify() {
		case KindEmpty:
			if sawEmpty {
				return nil
			}
			sawEmpty = true
			cursor += BlockSize
			continue
		case KindBadMagic:
			log.Println("tarfile: encountered bad magic at block", cursor/BlockSize)
			cursor += BlockSize
			continue
		case KindBadChecksum:
			log.Println("tarfile: encountered bad tar header checksum at block", cursor/BlockSize)
			cursor += BlockSize
			continue
		}
		sawEmpty = false

		switch block.Classify() {
		case KindExtended:
			next, err := w.walkExtended(cursor, table, pool)
			if err != nil {
				return err
			}
			cursor = next

		case KindNormal:
			size, err := block.Size()
			if err != nil {
				return errors.Wrap(err, "tarfile: header size")
			}
			handle, err := pool.Intern(block.Name(), false)
			if err != nil {
				return err
			}
			name := pool.Get(handle)
			table.Append(Record{
				Name:        name,
				Offset:      cursor/BlockSize + 1,
				Size:        size,
				Type:        TypeRegular,
				Fingerprint: Fingerprint(name),
			})
			cursor += BlockSize + blocksFor(size)*BlockSize

		case KindNonFile:
			typ, handle, ok, err := classifyNonFile(block, pool)
			if err != nil {
				return err
			}
			if ok {
				table.Append(Record{
					Name:   pool.Get(handle),
					Offset: cursor/BlockSize + 1,
					Type:   typ,
				})
			}
			cursor += BlockSize
		}
	}
}

// walkExtended consumes a GNU 'L' header (the long-name payload block,
// then the real member header) and appends the fused record. It returns
// the cursor position following the member's header and payload.
func (w *Walker) walkExtended(cursor int64, table *RecordTable, pool *NamePool) (int64, error) {
	if cursor+3*BlockSize > w.totalBytes {
		return 0, errors.New("tarfile: truncated extended header")
	}
	longName := cstr(w.data[cursor+BlockSize : cursor+2*BlockSize])
	header := w.blockAt(cursor + 2*BlockSize)

	typ, ok := recordTypeFromTypeflag(header.Typeflag())
	if !ok {
		return cursor + 3*BlockSize, nil
	}

	size, err := header.Size()
	if err != nil {
		return 0, errors.Wrap(err, "tarfile: extended header size")
	}
	handle, err := pool.Intern(longName, true)
	if err != nil {
		return 0, err
	}
	name := pool.Get(handle)
	rec := Record{
		Name:   name,
		Offset: (cursor+2*BlockSize)/BlockSize + 1,
		Type:   typ,
	}
	if typ == TypeRegular {
		rec.Size = size
		rec.Fingerprint = Fingerprint(name)
	}
	table.Append(rec)

	next := cursor + 3*BlockSize
	if typ == TypeRegular {
		next += blocksFor(size) * BlockSize
	}
	return next, nil
}

func blocksFor(size int64) int64 {
	if size <= 0 {
		return 0
	}
	return (size + BlockSize - 1) / BlockSize
}

func recordTypeFromTypeflag(tf byte) (Type, bool) {
	switch tf {
	case '0':
		return TypeRegular, true
	case '1':
		return TypeHardlink, true
	case '2':
		return TypeSymlink, true
	case '3':
		return TypeCharDevice, true
	case '4':
		return TypeBlockDevice, true
	case '5':
		return TypeDirectory, true
	case '6':
		return TypeFifo, true
	default:
		return 0, false
	}
}

func classifyNonFile(block *Block, pool *NamePool) (Type, NameHandle, bool, error) {
	typ, ok := recordTypeFromTypeflag(block.Typeflag())
	if !ok {
		return 0, NameHandle{}, false, nil
	}
	var h NameHandle
	var err error
	switch typ {
	case TypeHardlink, TypeSymlink:
		h, err = pool.InternLink(block.Linkname(), block.Name())
	default:
		h, err = pool.Intern(block.Name(), false)
	}
	return typ, h, true, err
}
