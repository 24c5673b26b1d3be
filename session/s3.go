package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	aichef "github.com/prasha-au/aichef"
)

// S3Store keeps one object per session id. This is the deployed configuration.
type S3Store struct {
	bucket string
	prefix string
	s3     *s3.Client
}

func NewS3Store(s3Client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		bucket: bucket,
		prefix: prefix,
		s3:     s3Client,
	}
}

func (s *S3Store) Load(ctx context.Context, id string) (aichef.Session, error) {
	if err := validateID(id); err != nil {
		return aichef.Session{}, err
	}
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return aichef.Session{ID: id}, nil
		}
		return aichef.Session{}, fmt.Errorf("failed to get session object from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return aichef.Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	var sess aichef.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return aichef.Session{}, fmt.Errorf("parse session %s: %w", id, err)
	}
	sess.ID = id
	return sess, nil
}

func (s *S3Store) Save(ctx context.Context, sess aichef.Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(sess.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put session object to S3: %w", err)
	}
	return nil
}

func (s *S3Store) key(id string) string {
	return s.prefix + id + ".json"
}
