package search

import (
	"context"
	"fmt"
	"strconv"

	"storefront/internal/domain/model"

	"github.com/olivere/elastic/v7"
)

// price は double、category はオブジェクトで持つ
const productsMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "description": {"type": "text"},
      "imageUrl":    {"type": "keyword", "index": false},
      "categoryId":  {"type": "long"},
      "status":      {"type": "keyword"},
      "price":       {"type": "double"},
      "quantity":    {"type": "long"},
      "createdAt":   {"type": "date"},
      "category": {
        "properties": {
          "id":   {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}}
        }
      }
    }
  }
}`

// NewClient はスニッフィング無しのクライアントを作る（単一ノード/プロキシ越し前提）
func NewClient(url string) (*elastic.Client, error) {
	c, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic client %s: %w", url, err)
	}
	return c, nil
}

// ProductIndex は商品ドキュメントを id をキーに出し入れする
type ProductIndex struct {
	client *elastic.Client
	index  string
}

func NewProductIndex(client *elastic.Client, index string) *ProductIndex {
	return &ProductIndex{client: client, index: index}
}

// EnsureIndex はインデックスが無ければマッピング付きで作る
func (i *ProductIndex) EnsureIndex(ctx context.Context) error {
	exists, err := i.client.IndexExists(i.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("index exists %s: %w", i.index, err)
	}
	if exists {
		return nil
	}
	if _, err := i.client.CreateIndex(i.index).BodyString(productsMapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	return nil
}

func (i *ProductIndex) Upsert(ctx context.Context, doc model.SearchDocument) error {
	_, err := i.client.Index().
		Index(i.index).
		Id(docID(doc.ID)).
		BodyJson(doc).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("index product %d: %w", doc.ID, err)
	}
	return nil
}

// Delete は存在しなくてもエラーにしない
func (i *ProductIndex) Delete(ctx context.Context, productID int64) error {
	_, err := i.client.Delete().
		Index(i.index).
		Id(docID(productID)).
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("delete product %d: %w", productID, err)
	}
	return nil
}

func (i *ProductIndex) BulkUpsert(ctx context.Context, docs []model.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	bulk := i.client.Bulk().Index(i.index)
	for _, d := range docs {
		bulk.Add(elastic.NewBulkIndexRequest().Id(docID(d.ID)).Doc(d))
	}
	resp, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index %d products: %w", len(docs), err)
	}
	if failed := resp.Failed(); len(failed) > 0 {
		reason := ""
		if failed[0].Error != nil {
			reason = failed[0].Error.Reason
		}
		return fmt.Errorf("bulk index: %d of %d failed (id=%s: %s)", len(failed), len(docs), failed[0].Id, reason)
	}
	return nil
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}
