// Package archive keeps a copy of manufacturer and product import files in
// S3 so operators can trace a run back to the file it read.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Putter is the part of the S3 client the archive uses.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client Putter
	bucket string
	prefix string
}

// NewS3 loads the default AWS credential chain for region.
func NewS3(ctx context.Context, bucket, region, prefix string) (*S3Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func New(client Putter, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

var unsafeKeyChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// Key is <prefix>/<kind>/<yyyy>/<mm>/<dd>/<runID>_<fileName>.
func (a *S3Archive) Key(kind, runID, fileName string, at time.Time) string {
	name := unsafeKeyChars.ReplaceAllString(path.Base(fileName), "_")
	if name == "" || name == "." {
		name = "upload"
	}
	key := path.Join(kind, at.Format("2006/01/02"), runID+"_"+name)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	return key
}

// Store uploads data under Key and returns the object key.
func (a *S3Archive) Store(ctx context.Context, kind, runID, fileName string, data []byte) (string, error) {
	key := a.Key(kind, runID, fileName, time.Now().UTC())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3 (bucket %s, key %s): %w", a.bucket, key, err)
	}
	return key, nil
}

func contentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}
