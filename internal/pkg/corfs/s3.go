package corfs

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	lru "github.com/hashicorp/golang-lru"
	"github.com/mattetti/filebuffer"
)

// Number of object sizes remembered from listings, so that copying a listed
// object does not need an extra HeadObject round trip.
const objectCacheSize = 4096

// Objects are read in ranged chunks of this size.
const defaultReadChunkSize = 32 * 1024 * 1024

// S3FileSystem abstracts AWS S3 as a FileSystem. Paths have the form
// s3://<bucket>/<key>.
type S3FileSystem struct {
	s3Client    s3iface.S3API
	objectCache *lru.Cache
}

func parseS3URI(uri string) (*url.URL, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "s3" {
		return nil, fmt.Errorf("invalid s3 uri: %s", uri)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("s3 uri has no bucket: %s", uri)
	}
	parsed.Path = strings.TrimPrefix(parsed.Path, "/")
	return parsed, nil
}

// globPrefix returns the longest leading part of pattern without glob metacharacters
func globPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?[\\"); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// ListFiles lists the objects matching pathGlob. A pattern without glob
// metacharacters is treated as a key prefix.
func (s *S3FileSystem) ListFiles(pathGlob string) ([]FileInfo, error) {
	parsed, err := parseS3URI(pathGlob)
	if err != nil {
		return nil, err
	}
	bucket := parsed.Host
	pattern := parsed.Path
	prefix := globPrefix(pattern)
	isGlob := prefix != pattern

	s3Files := make([]FileInfo, 0)
	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	var matchErr error
	err = s.s3Client.ListObjectsV2Pages(params,
		func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, object := range page.Contents {
				key := aws.StringValue(object.Key)
				if isGlob {
					matched, err := path.Match(pattern, key)
					if err != nil {
						matchErr = err
						return false
					}
					if !matched {
						continue
					}
				}
				info := FileInfo{
					Name: fmt.Sprintf("s3://%s/%s", bucket, key),
					Size: aws.Int64Value(object.Size),
				}
				s.objectCache.Add(info.Name, info)
				s3Files = append(s3Files, info)
			}
			return true
		})
	if err != nil {
		return nil, err
	}
	if matchErr != nil {
		return nil, matchErr
	}

	return s3Files, nil
}

// OpenReader opens a reader to the object at filePath, starting startAt
// bytes into the object
func (s *S3FileSystem) OpenReader(filePath string, startAt int64) (io.ReadCloser, error) {
	parsed, err := parseS3URI(filePath)
	if err != nil {
		return nil, err
	}

	objStat, err := s.Stat(filePath)
	if err != nil {
		return nil, err
	}

	return &s3Reader{
		client:    s.s3Client,
		bucket:    parsed.Host,
		key:       parsed.Path,
		offset:    startAt,
		chunkSize: defaultReadChunkSize,
		totalSize: objStat.Size,
	}, nil
}

// OpenWriter opens a writer to the object at filePath. The object is
// uploaded when the writer is closed.
func (s *S3FileSystem) OpenWriter(filePath string) (io.WriteCloser, error) {
	parsed, err := parseS3URI(filePath)
	if err != nil {
		return nil, err
	}
	s.objectCache.Remove(filePath)

	return &s3Writer{
		client: s.s3Client,
		bucket: parsed.Host,
		key:    parsed.Path,
		buf:    filebuffer.New(nil),
	}, nil
}

// Stat returns information about the object at filePath. A missing object
// yields an error matching fs.ErrNotExist.
func (s *S3FileSystem) Stat(filePath string) (FileInfo, error) {
	if cached, ok := s.objectCache.Get(filePath); ok {
		return cached.(FileInfo), nil
	}

	parsed, err := parseS3URI(filePath)
	if err != nil {
		return FileInfo{}, err
	}

	params := &s3.HeadObjectInput{
		Bucket: aws.String(parsed.Host),
		Key:    aws.String(parsed.Path),
	}
	result, err := s.s3Client.HeadObject(params)
	if err != nil {
		if isNotFound(err) {
			return FileInfo{}, fmt.Errorf("%s: %w", filePath, fs.ErrNotExist)
		}
		return FileInfo{}, err
	}

	info := FileInfo{
		Name: filePath,
		Size: aws.Int64Value(result.ContentLength),
	}
	s.objectCache.Add(filePath, info)
	return info, nil
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchKey:
			return true
		}
	}
	return false
}

// MkdirAll is a no-op; S3 has no directories.
func (s *S3FileSystem) MkdirAll(dirPath string) error {
	return nil
}

func (s *S3FileSystem) Delete(filePath string) error {
	parsed, err := parseS3URI(filePath)
	if err != nil {
		return err
	}
	s.objectCache.Remove(filePath)

	params := &s3.DeleteObjectInput{
		Bucket: aws.String(parsed.Host),
		Key:    aws.String(parsed.Path),
	}
	_, err = s.s3Client.DeleteObject(params)
	return err
}

// copyObject copies an object within S3 without downloading it
func (s *S3FileSystem) copyObject(srcPath, dstPath string) (int64, error) {
	src, err := parseS3URI(srcPath)
	if err != nil {
		return 0, err
	}
	dst, err := parseS3URI(dstPath)
	if err != nil {
		return 0, err
	}

	srcStat, err := s.Stat(srcPath)
	if err != nil {
		return 0, err
	}

	source := (&url.URL{Path: src.Host + "/" + src.Path}).EscapedPath()
	params := &s3.CopyObjectInput{
		Bucket:     aws.String(dst.Host),
		Key:        aws.String(dst.Path),
		CopySource: aws.String(source),
	}
	if _, err := s.s3Client.CopyObject(params); err != nil {
		return 0, err
	}

	s.objectCache.Add(dstPath, FileInfo{Name: dstPath, Size: srcStat.Size})
	return srcStat.Size, nil
}

// Init initializes the S3 client from the shared AWS configuration
func (s *S3FileSystem) Init() error {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return err
	}
	return s.init(s3.New(sess))
}

func (s *S3FileSystem) init(client s3iface.S3API) error {
	cache, err := lru.New(objectCacheSize)
	if err != nil {
		return err
	}
	s.s3Client = client
	s.objectCache = cache
	return nil
}

// Join joins path elements into a single s3:// path. A trailing slash on
// the last element is kept.
func (s *S3FileSystem) Join(elem ...string) string {
	if len(elem) == 0 {
		return ""
	}
	stripped := make([]string, len(elem))
	for i, e := range elem {
		stripped[i] = strings.TrimPrefix(e, "s3://")
	}

	joined := path.Join(stripped...)
	if strings.HasSuffix(elem[len(elem)-1], "/") {
		joined += "/"
	}
	return "s3://" + joined
}
