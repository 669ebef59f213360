package api

import (
	"context"
	"fmt"

	"github.com/iudanet/datapool/internal/client/region"
	"github.com/iudanet/datapool/internal/models"
	"github.com/iudanet/datapool/pkg/api"
)

// CollectionLoader наполняет регион объектами коллекции, постранично
// запрашивая их с сервера. Каждая страница отдается в регион сразу же,
// не дожидаясь конца выборки.
type CollectionLoader struct {
	client *Client
	typ    string
	filter string
}

// Compile-time check that CollectionLoader implements region.Loader
var _ region.Loader = (*CollectionLoader)(nil)

// NewCollectionLoader создает loader коллекции заданного типа с фильтром
func NewCollectionLoader(client *Client, collectionType, filter string) *CollectionLoader {
	return &CollectionLoader{
		client: client,
		typ:    collectionType,
		filter: filter,
	}
}

// Load выбирает все страницы коллекции. Полный набор id возвращается
// только если сервер подтвердил завершенность выборки - иначе регион
// не вправе вычищать объекты, не попавшие в ответ.
func (l *CollectionLoader) Load(ctx context.Context, sink region.Sink) ([]string, error) {
	var ids []string
	cursor := ""
	complete := true

	for {
		resp, err := l.client.QueryCollection(ctx, api.CollectionRequest{
			Type:   l.typ,
			Filter: l.filter,
			Cursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load collection page: %w", err)
		}

		objects := make([]*models.DataObject, 0, len(resp.Objects))
		for _, obj := range resp.Objects {
			objects = append(objects, &models.DataObject{
				ID:   obj.ID,
				Type: obj.Type,
				Data: obj.Data,
			})
			ids = append(ids, obj.ID)
		}
		sink.Add(objects)

		if !resp.Complete {
			complete = false
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	if !complete {
		return nil, nil
	}
	return ids, nil
}
