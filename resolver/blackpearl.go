package resolver

import (
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"

	"github.com/SpectraLogic/ds3_go_sdk/ds3"
	ds3models "github.com/SpectraLogic/ds3_go_sdk/ds3/models"
	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// BlackPearl resolves a logical archive name against a SpectraLogic
// BlackPearl appliance's bucket, staging the member's full content to a
// local temp file so the walker can memory-map it like any other local
// tar. A disk-archive copy is always whole-file; there is no byte-range
// "offset" concept on the BlackPearl side, so the staged copy always
// starts at offset 0.
type BlackPearl struct {
	client  *ds3.Client
	Bucket  string
	Prefix  string
	TempDir string // where staged copies are written; "" uses the default
}

// NewBlackPearl returns a resolver backed by client, restricted to
// bucket and (optionally) a key prefix.
func NewBlackPearl(client *ds3.Client, bucket, prefix string) *BlackPearl {
	return &BlackPearl{client: client, Bucket: bucket, Prefix: prefix}
}

// Resolve stages logicalName's on-media copy to a local file and
// returns its Location. Only copyNumber 1 is understood.
func (bp *BlackPearl) Resolve(logicalName string, copyNumber int) (Location, error) {
	if copyNumber != 1 {
		return Location{}, ErrUnsupportedSamCopy
	}
	key := bp.Prefix + logicalName

	size, err := bp.headSize(key)
	if err != nil {
		return Location{}, errors.Wrapf(err, "resolver: head %s", key)
	}

	dst, err := ioutil.TempFile(bp.TempDir, "mtbagcheck-sam-")
	if err != nil {
		return Location{}, errors.Wrap(err, "resolver: create staging file")
	}
	defer dst.Close()

	request := ds3models.NewGetObjectRequest(bp.Bucket, key)
	output, err := bp.client.GetObject(request)
	if err != nil {
		log.Println("BlackPearl Resolve GetObject:", bp.Bucket, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": bp.Bucket, "Key": key})
		return Location{}, errors.Wrapf(err, "resolver: get %s", key)
	}
	defer output.Content.Close()

	if _, err := io.Copy(dst, output.Content); err != nil {
		return Location{}, errors.Wrapf(err, "resolver: stage %s", key)
	}

	return Location{BackingPath: dst.Name(), StartOffset: 0, TotalBytes: size, Staged: true}, nil
}

func (bp *BlackPearl) headSize(key string) (int64, error) {
	info, err := bp.client.HeadObject(ds3models.NewHeadObjectRequest(bp.Bucket, key))
	if err != nil {
		return 0, err
	}
	x := info.Headers.Get("Content-Length")
	if x == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(x, 10, 64)
	return n, err
}

// Cleanup removes a Location's staged temp file, if any. It is a no-op
// for plain and wrapped locations, which point at a caller-owned path.
func Cleanup(loc Location) error {
	if !loc.Staged {
		return nil
	}
	return os.Remove(loc.BackingPath)
}
