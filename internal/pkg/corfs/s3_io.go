package corfs

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/mattetti/filebuffer"
)

type s3Writer struct {
	client s3iface.S3API
	bucket string
	key    string
	buf    *filebuffer.Buffer
}

func (s *s3Writer) Write(p []byte) (n int, err error) {
	return s.buf.Write(p)
}

func (s *s3Writer) Close() error {
	if _, err := s.buf.Seek(0, io.SeekStart); err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Body:   s.buf,
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}
	_, err := s.client.PutObject(input)
	return err
}

// Abort drops the buffered object without uploading it
func (s *s3Writer) Abort() error {
	s.buf = filebuffer.New(nil)
	return nil
}

// s3Reader reads an object through a sequence of ranged GetObject requests
type s3Reader struct {
	client    s3iface.S3API
	bucket    string
	key       string
	offset    int64 // start of the next chunk to load
	chunkSize int64
	chunk     io.ReadCloser
	totalSize int64
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func (s *s3Reader) loadNextChunk() error {
	size := min64(s.chunkSize, s.totalSize-s.offset)
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", s.offset, s.offset+size-1)),
	}
	output, err := s.client.GetObject(params)
	if err != nil {
		return err
	}
	s.offset += size
	s.chunk = output.Body
	return nil
}

func (s *s3Reader) Read(b []byte) (n int, err error) {
	for {
		if s.chunk == nil {
			if s.offset >= s.totalSize {
				return 0, io.EOF
			}
			if err := s.loadNextChunk(); err != nil {
				return 0, err
			}
		}

		n, err = s.chunk.Read(b)
		if err != io.EOF {
			return n, err
		}
		s.chunk.Close()
		s.chunk = nil
		if n > 0 {
			return n, nil
		}
	}
}

func (s *s3Reader) Close() error {
	if s.chunk == nil {
		return nil
	}
	err := s.chunk.Close()
	s.chunk = nil
	return err
}
