package eventlog

import (
	"context"
	"strings"
	"time"

	"github.com/dappmarket/marketplace-core/internal/config"
	"github.com/dappmarket/marketplace-core/internal/entity"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const batchPersistThreshold = 50

// Index buffers settlement documents and flushes them to Elasticsearch in
// bulk. The presentation layer reads listings and sale history from these
// indices instead of querying the core.
type Index interface {
	GetClient() *elastic.Client

	InstallMappings() error

	AddIndexRequest(index string, e entity.Entity)
	GetRequests() []Request
	ClearRequests()

	Save(index string, e entity.Entity)
	BatchPersist() bool
	Persist() int
}

type index struct {
	client  *elastic.Client
	cache   *cache.Cache
	refresh string
}

type Request struct {
	Index  string
	Entity entity.Entity
}

func New() (Index, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	return index{client, cache.New(5*time.Minute, 10*time.Minute), config.Get().ElasticSearch.Refresh}, nil
}

func newClient() (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(strings.Join(config.Get().ElasticSearch.Hosts, ",")),
		elastic.SetSniff(config.Get().ElasticSearch.Sniff),
		elastic.SetHealthcheck(config.Get().ElasticSearch.HealthCheck),
	}

	if config.Get().ElasticSearch.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if config.Get().ElasticSearch.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(
			config.Get().ElasticSearch.Username,
			config.Get().ElasticSearch.Password,
		))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

func (i index) InstallMappings() error {
	zap.L().Info("EventLog: Install Mappings")

	for idx, mapping := range mappings {
		if err := i.createIndex(idx.Get(), mapping); err != nil {
			zap.L().With(zap.Error(err), zap.String("index", idx.Get())).Error("EventLog: Failed to create index")
			return err
		}
	}

	return nil
}

func (i index) createIndex(index string, mapping string) error {
	ctx := context.Background()

	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if !exists {
		createIndex, err := i.client.CreateIndex(index).BodyString(mapping).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("EventLog: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, e entity.Entity) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", e.Slug()),
	).Debug("EventLog: AddIndexRequest")

	i.cache.Set(e.Slug(), Request{index, e}, cache.DefaultExpiration)
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) Save(index string, e entity.Entity) {
	_, err := i.client.Index().
		Index(index).
		Id(e.Slug()).
		BodyJson(e).
		Refresh(i.refresh).
		Do(context.Background())

	if err != nil {
		zap.L().With(zap.Error(err), zap.String("index", index), zap.String("slug", e.Slug())).
			Error("EventLog: Failed to save entity")
	}
}

func (i index) BatchPersist() bool {
	if len(i.GetRequests()) < batchPersistThreshold {
		return false
	}

	i.Persist()

	return true
}

func (i index) Persist() int {
	requests := i.GetRequests()
	if len(requests) == 0 {
		return 0
	}

	bulk := i.client.Bulk().Refresh(i.refresh)
	for _, req := range requests {
		bulk.Add(elastic.NewBulkIndexRequest().
			Index(req.Index).
			Id(req.Entity.Slug()).
			Doc(req.Entity))
	}

	response, err := bulk.Do(context.Background())
	if err != nil {
		zap.L().With(zap.Error(err)).Error("EventLog: Failed to persist requests")
		return 0
	}

	if response.Errors {
		for _, failed := range response.Failed() {
			zap.L().With(
				zap.String("index", failed.Index),
				zap.String("id", failed.Id),
			).Error("EventLog: Failed to index document")
		}
	}

	i.ClearRequests()

	return len(requests)
}
