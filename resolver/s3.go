package resolver

import (
	"io"
	"io/ioutil"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	raven "github.com/getsentry/raven-go"
	"github.com/pkg/errors"
)

// S3 resolves a logical archive name to a local staged copy of an
// object kept in AWS S3, the same whole-object staging strategy as
// BlackPearl: byte-range reads aren't useful here since the walker
// wants a single mmap'd view of the complete tar stream.
type S3 struct {
	svc     *s3.S3
	Bucket  string
	Prefix  string
	TempDir string
}

// NewS3 returns a resolver backed by awsSession, restricted to bucket
// and (optionally) a key prefix.
func NewS3(awsSession *session.Session, bucket, prefix string) *S3 {
	return &S3{svc: s3.New(awsSession), Bucket: bucket, Prefix: prefix}
}

// Resolve stages logicalName's object content to a local file and
// returns its Location. Only copyNumber 1 is understood, since S3 has
// no concept of a hierarchical-storage copy number.
func (sv *S3) Resolve(logicalName string, copyNumber int) (Location, error) {
	if copyNumber != 1 {
		return Location{}, ErrUnsupportedSamCopy
	}
	key := sv.Prefix + logicalName

	head, err := sv.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(sv.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Println("S3 Resolve HeadObject:", sv.Bucket, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": sv.Bucket, "Key": key})
		return Location{}, errors.Wrapf(err, "resolver: head %s", key)
	}

	dst, err := ioutil.TempFile(sv.TempDir, "mtbagcheck-s3-")
	if err != nil {
		return Location{}, errors.Wrap(err, "resolver: create staging file")
	}
	defer dst.Close()

	out, err := sv.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(sv.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Println("S3 Resolve GetObject:", sv.Bucket, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": sv.Bucket, "Key": key})
		return Location{}, errors.Wrapf(err, "resolver: get %s", key)
	}
	defer out.Body.Close()

	if _, err := io.Copy(dst, out.Body); err != nil {
		return Location{}, errors.Wrapf(err, "resolver: stage %s", key)
	}

	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	return Location{BackingPath: dst.Name(), StartOffset: 0, TotalBytes: size, Staged: true}, nil
}
