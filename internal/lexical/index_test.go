package lexical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"studyqa/internal/storage"
	storage_mocks "studyqa/internal/storage/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestIndex(t *testing.T) (*Index, *storage.ModelRepo) {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	models := storage.NewModelRepo(db)
	idx, err := NewIndex(storage.NewRecordRepo(db), models, Options{})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return idx, models
}

func rec(id, text string) storage.Record {
	return storage.Record{ID: id, Text: text, Metadata: storage.Metadata{Subject: "History", Chapter: "2"}}
}

func TestIndex_Upsert_Idempotent(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	records := []storage.Record{
		rec("a", "Cotton textiles were exported from Bengal."),
		rec("b", "British goods flooded Indian markets."),
		rec("c", "Weavers lost their livelihood."),
	}

	first, err := idx.Upsert(ctx, "History-ch2", records, false)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := idx.Upsert(ctx, "History-ch2", records, false)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if first.Count != 3 || second.Count != 3 {
		t.Errorf("Upsert() counts = %d, %d, want 3, 3", first.Count, second.Count)
	}
	if second.Namespace != "History-ch2" {
		t.Errorf("Upsert() namespace = %q, want History-ch2", second.Namespace)
	}
}

func TestIndex_Upsert_Reset(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, "ns", []storage.Record{rec("a", "alpha text"), rec("b", "beta text")}, false)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	got, err := idx.Upsert(ctx, "ns", []storage.Record{rec("c", "gamma text")}, true)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got.Count != 1 {
		t.Errorf("Upsert(reset) count = %d, want 1", got.Count)
	}

	res, err := idx.Query(ctx, "ns", "alpha", 5, RetrieverAuto)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for _, hit := range res.Results {
		if hit.Text == "alpha text" {
			t.Error("Query() returned a record removed by reset")
		}
	}
}

func TestIndex_Query_Empty(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Upsert(ctx, "ns", []storage.Record{rec("a", "some text"), rec("b", "more text")}, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		name      string
		namespace string
		query     string
	}{
		{name: "unknown namespace", namespace: "missing", query: "text"},
		{name: "no word tokens", namespace: "ns", query: "?! ..."},
		{name: "empty query", namespace: "ns", query: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Query(ctx, tt.namespace, tt.query, 5, RetrieverAuto)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if res.Results == nil || len(res.Results) != 0 {
				t.Errorf("Query() results = %v, want empty non-nil slice", res.Results)
			}
		})
	}
}

func TestIndex_Query_NoiseDownWeight(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	clean := "Deindustrialisation happened in India because British goods flooded markets."
	records := []storage.Record{
		rec("ex", "Exercise: explain deindustrialisation deindustrialisation"),
		rec("clean", clean),
		rec("other", "Cotton textiles were exported from Bengal."),
	}
	if _, err := idx.Upsert(ctx, "ns", records, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for _, r := range []Retriever{RetrieverTFIDF, RetrieverBM25} {
		t.Run(r.String(), func(t *testing.T) {
			res, err := idx.Query(ctx, "ns", "deindustrialisation", 3, r)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if res.Retriever != r.String() {
				t.Errorf("Query() retriever = %q, want %q", res.Retriever, r.String())
			}
			if len(res.Results) == 0 {
				t.Fatal("Query() returned no results")
			}
			if res.Results[0].Text != clean {
				t.Errorf("Query() top hit = %q, want %q", res.Results[0].Text, clean)
			}
		})
	}
}

func TestIndex_Query_DistancesOrdered(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	var records []storage.Record
	for i := 0; i < 7; i++ {
		records = append(records, rec(fmt.Sprintf("r%d", i), fmt.Sprintf("record %d mentions weavers and looms %d times", i, i)))
	}
	if _, err := idx.Upsert(ctx, "ns", records, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for _, r := range []Retriever{RetrieverAuto, RetrieverBM25} {
		res, err := idx.Query(ctx, "ns", "weavers looms", 0, r)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if len(res.Results) != DefaultK {
			t.Fatalf("Query(k=0) returned %d results, want %d", len(res.Results), DefaultK)
		}
		prev := -1.0
		for _, hit := range res.Results {
			if hit.Distance == nil {
				t.Fatal("Query() hit has nil distance")
			}
			d := *hit.Distance
			if d < 0 || d > 1 {
				t.Errorf("distance %v out of [0,1]", d)
			}
			if d < prev {
				t.Errorf("distances not ascending: %v after %v", d, prev)
			}
			prev = d
		}
	}
}

func TestIndex_Query_FallsBackToBM25(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Upsert(ctx, "single", []storage.Record{rec("a", "Only one passage about trade.")}, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := idx.Upsert(ctx, "stop", []storage.Record{rec("a", "the and of"), rec("b", "is it a")}, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		name      string
		namespace string
		query     string
		retriever Retriever
	}{
		{name: "auto single document", namespace: "single", query: "trade", retriever: RetrieverAuto},
		{name: "explicit tfidf single document", namespace: "single", query: "trade", retriever: RetrieverTFIDF},
		{name: "stopword-only corpus", namespace: "stop", query: "the", retriever: RetrieverAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Query(ctx, tt.namespace, tt.query, 5, tt.retriever)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if res.Retriever != "bm25" {
				t.Errorf("Query() retriever = %q, want bm25", res.Retriever)
			}
			if len(res.Results) == 0 {
				t.Error("Query() returned no results")
			}
		})
	}
}

func TestIndex_Query_SingleDocumentBM25Distance(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Upsert(ctx, "ns", []storage.Record{rec("a", "Only one passage about trade.")}, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	res, err := idx.Query(ctx, "ns", "trade", 5, RetrieverAuto)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(res.Results) != 1 || *res.Results[0].Distance != 0 {
		t.Errorf("Query() = %+v, want one hit with distance 0", res.Results)
	}

	res, err = idx.Query(ctx, "ns", "weavers", 5, RetrieverAuto)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(res.Results) != 1 || *res.Results[0].Distance != 1 {
		t.Errorf("Query() = %+v, want one hit with distance 1", res.Results)
	}
}

func TestIndex_Query_CacheInvalidatedByUpsert(t *testing.T) {
	idx, models := newTestIndex(t)
	ctx := context.Background()

	records := []storage.Record{
		rec("a", "Cotton textiles were exported from Bengal."),
		rec("b", "Weavers lost their livelihood."),
	}
	if _, err := idx.Upsert(ctx, "ns", records, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := idx.Query(ctx, "ns", "railways", 5, RetrieverTFIDF); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if _, err := models.Load(ctx, "ns"); err != nil {
		t.Fatalf("model not persisted after query: %v", err)
	}

	railways := "Railways carried raw cotton to the ports."
	if _, err := idx.Upsert(ctx, "ns", []storage.Record{rec("c", railways)}, false); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := models.Load(ctx, "ns"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("persisted model after upsert: err = %v, want ErrNotFound", err)
	}

	res, err := idx.Query(ctx, "ns", "railways", 5, RetrieverTFIDF)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(res.Results) != 3 {
		t.Fatalf("Query() returned %d results, want 3", len(res.Results))
	}
	if res.Results[0].Text != railways {
		t.Errorf("Query() top hit = %q, want %q", res.Results[0].Text, railways)
	}
}

func TestIndex_ClearCache(t *testing.T) {
	idx, models := newTestIndex(t)
	ctx := context.Background()

	for _, ns := range []string{"a-ch1", "b-ch1"} {
		if _, err := idx.Upsert(ctx, ns, []storage.Record{rec("1", "first text here"), rec("2", "second text here")}, false); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if _, err := idx.Query(ctx, ns, "text", 5, RetrieverAuto); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}

	cleared, err := idx.ClearCache(ctx, "a-ch1")
	if err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if len(cleared) != 1 || cleared[0] != "a-ch1" {
		t.Errorf("ClearCache(a-ch1) = %v, want [a-ch1]", cleared)
	}
	if _, err := models.Load(ctx, "b-ch1"); err != nil {
		t.Errorf("ClearCache(a-ch1) removed b-ch1 model: %v", err)
	}

	cleared, err = idx.ClearCache(ctx, "")
	if err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if len(cleared) != 1 || cleared[0] != "b-ch1" {
		t.Errorf("ClearCache(all) = %v, want [b-ch1]", cleared)
	}
}

func TestIndex_Query_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := storage_mocks.NewMockRecordStore(ctrl)
	records.EXPECT().Snapshot(gomock.Any(), "ns").Return(storage.Snapshot{}, errors.New("disk failure"))

	idx, err := NewIndex(records, nil, Options{})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	res, err := idx.Query(context.Background(), "ns", "trade", 5, RetrieverAuto)
	if err == nil {
		t.Fatal("Query() expected error")
	}
	if len(res.Results) != 0 {
		t.Errorf("Query() results = %v, want empty", res.Results)
	}
}

func TestIndex_Query_PersistedModel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := storage.Snapshot{
		Namespace: "ns",
		Revision:  42,
		Records: []storage.Record{
			rec("a", "Cotton textiles were exported from Bengal."),
			rec("b", "Weavers lost their livelihood."),
		},
	}

	vectorizer := NewVectorizer(nil, 0)
	model, err := vectorizer.Fit([]string{snap.Records[0].Text, snap.Records[1].Text})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	payload, err := EncodeModel(model)
	if err != nil {
		t.Fatalf("EncodeModel() error = %v", err)
	}

	tests := []struct {
		name      string
		blob      *storage.ModelBlob
		loadErr   error
		wantSaved bool
	}{
		{
			name:      "matching blob is reused",
			blob:      &storage.ModelBlob{Namespace: "ns", Revision: 42, DocCount: 2, Payload: payload},
			wantSaved: false,
		},
		{
			name:      "stale revision is rebuilt",
			blob:      &storage.ModelBlob{Namespace: "ns", Revision: 41, DocCount: 2, Payload: payload},
			wantSaved: true,
		},
		{
			name:      "malformed payload is rebuilt",
			blob:      &storage.ModelBlob{Namespace: "ns", Revision: 42, DocCount: 2, Payload: []byte("{not json")},
			wantSaved: true,
		},
		{
			name:      "missing blob is built",
			loadErr:   storage.ErrNotFound,
			wantSaved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := storage_mocks.NewMockRecordStore(ctrl)
			models := storage_mocks.NewMockModelStore(ctrl)

			records.EXPECT().Snapshot(gomock.Any(), "ns").Return(snap, nil).Times(2)
			models.EXPECT().Load(gomock.Any(), "ns").Return(tt.blob, tt.loadErr).Times(1)
			if tt.wantSaved {
				models.EXPECT().Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, blob *storage.ModelBlob) error {
						if blob.Revision != 42 || blob.DocCount != 2 {
							t.Errorf("Save() blob = rev %d count %d, want rev 42 count 2", blob.Revision, blob.DocCount)
						}
						return nil
					}).Times(1)
			}

			idx, err := NewIndex(records, models, Options{})
			if err != nil {
				t.Fatalf("NewIndex() error = %v", err)
			}

			for i := 0; i < 2; i++ {
				res, err := idx.Query(context.Background(), "ns", "weavers", 1, RetrieverTFIDF)
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				if res.Retriever != "tfidf" {
					t.Errorf("Query() retriever = %q, want tfidf", res.Retriever)
				}
				if len(res.Results) != 1 || res.Results[0].Text != snap.Records[1].Text {
					t.Errorf("Query() results = %+v", res.Results)
				}
			}
		})
	}
}
