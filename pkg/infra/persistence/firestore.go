package persistence

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultFirestoreCollection = "relwatch_releases"

// firestoreStore keeps one document per tracked entry. State keys contain
// "/" (repo identifiers), which Firestore document IDs reject, so keys are
// path-escaped on the way in and unescaped on the way out.
type firestoreStore struct {
	client     *firestore.Client
	collection string
}

func newFirestoreStore(ctx context.Context, conf map[string]any) (interfaces.StateStore, error) {
	projectID, _ := conf["project_id"].(string)
	if projectID == "" {
		return nil, goerr.New("firestore persistence requires project_id", goerr.T(types.ErrTagConfig))
	}

	var opts []option.ClientOption
	if creds, ok := conf["credentials_file"].(string); ok && creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Firestore client",
			goerr.V("project_id", projectID), goerr.T(types.ErrTagPersistence))
	}

	collection := defaultFirestoreCollection
	if c, ok := conf["collection"].(string); ok && c != "" {
		collection = c
	}

	return &firestoreStore{client: client, collection: collection}, nil
}

func (s *firestoreStore) GetLastTag(ctx context.Context, key string) (string, bool, error) {
	doc, err := s.client.Collection(s.collection).Doc(url.PathEscape(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to read state document",
			goerr.V("key", key), goerr.T(types.ErrTagPersistence))
	}

	tag, ok := doc.Data()["tag"].(string)
	if !ok {
		return "", false, nil
	}
	return tag, true, nil
}

func (s *firestoreStore) SetLastTag(ctx context.Context, key, tag string) error {
	_, err := s.client.Collection(s.collection).Doc(url.PathEscape(key)).Set(ctx, map[string]any{
		"tag": tag,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to write state document",
			goerr.V("key", key), goerr.T(types.ErrTagPersistence))
	}
	return nil
}

func (s *firestoreStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var entries []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate state documents", goerr.T(types.ErrTagPersistence))
		}

		key, err := url.PathUnescape(doc.Ref.ID)
		if err != nil {
			key = doc.Ref.ID
		}
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		tag, _ := doc.Data()["tag"].(string)
		entries = append(entries, key+":"+tag)
	}
	return entries, nil
}

func (s *firestoreStore) DeleteKeys(ctx context.Context, prefix string) (int, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var deleted int
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, goerr.Wrap(err, "failed to iterate state documents", goerr.T(types.ErrTagPersistence))
		}

		key, err := url.PathUnescape(doc.Ref.ID)
		if err != nil {
			key = doc.Ref.ID
		}
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete state document",
				goerr.V("key", key), goerr.T(types.ErrTagPersistence))
		}
		deleted++
	}
	return deleted, nil
}

func (s *firestoreStore) Close() error { return s.client.Close() }
