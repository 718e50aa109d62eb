package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/nlu/pkg/nlu/component"
	"github.com/cognicore/nlu/pkg/nlu/config"
	"github.com/cognicore/nlu/pkg/nlu/message"
	"github.com/cognicore/nlu/pkg/nlu/metadata"
	"github.com/cognicore/nlu/pkg/nlu/trainingdata"
)

func newExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	cfg := config.New("en", Name)
	if err := cfg.SetOptions(Name, opts); err != nil {
		t.Fatal(err)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func cities() Options {
	return Options{Entities: config.Gazetteer{
		"city": {
			"New York": {"nyc", "new york city"},
			"Paris":    {},
		},
	}}
}

func TestExtractLongestMatch(t *testing.T) {
	e := newExtractor(t, cities())

	got := e.Extract("Fly from New York City to paris")
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %+v", got)
	}
	if got[0].Start != 9 || got[0].End != 22 || got[0].Value != "New York" {
		t.Errorf("first entity = %+v", got[0])
	}
	if got[1].Value != "Paris" || got[1].Entity != "city" || got[1].Extractor != Name {
		t.Errorf("second entity = %+v", got[1])
	}
}

func TestExtractWholeWordsOnly(t *testing.T) {
	e := newExtractor(t, cities())
	if got := e.Extract("parisian nycs"); len(got) != 0 {
		t.Errorf("matched inside words: %+v", got)
	}
}

func TestExtractHanWithoutBoundaries(t *testing.T) {
	e := newExtractor(t, Options{Entities: config.Gazetteer{
		"city": {"北京": {}},
	}})
	got := e.Extract("我去北京玩")
	if len(got) != 1 || got[0].Value != "北京" || got[0].Start != 6 || got[0].End != 12 {
		t.Errorf("got %+v", got)
	}
}

func TestTrainLearnsAnnotatedSpans(t *testing.T) {
	e := newExtractor(t, Options{})
	data := trainingdata.FromExamples([]trainingdata.Example{
		{Text: "order a pizza", Entities: []message.Entity{{Start: 8, End: 13, Value: "pizza", Entity: "food"}}},
		{Text: "hi"},
	})
	if _, err := e.Train(data, config.New("en", Name), component.Context{}); err != nil {
		t.Fatal(err)
	}

	msg := message.New("one Pizza please", message.DefaultOutputAttributes(), nil)
	if err := e.Process(msg, nil); err != nil {
		t.Fatal(err)
	}
	ents := msg.Entities()
	if len(ents) != 1 || ents[0].Entity != "food" || ents[0].Start != 4 {
		t.Fatalf("entities = %+v", ents)
	}
	if _, ok := msg.AsMap(true)[message.AttrEntities]; !ok {
		t.Error("entities should be an output property")
	}
}

func TestProcessAppends(t *testing.T) {
	e := newExtractor(t, cities())
	msg := message.New("to paris", nil, nil)
	msg.Set(message.AttrEntities, []message.Entity{{Entity: "time", Value: "now"}}, true)

	if err := e.Process(msg, nil); err != nil {
		t.Fatal(err)
	}
	if ents := msg.Entities(); len(ents) != 2 || ents[0].Entity != "time" {
		t.Errorf("entities = %+v", ents)
	}
}

func TestGazetteerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.yaml")
	doc := "entities:\n  airline:\n    Lufthansa: [lh]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newExtractor(t, Options{GazetteerPath: path})
	got := e.Extract("LH 400")
	if len(got) != 1 || got[0].Value != "Lufthansa" {
		t.Errorf("got %+v", got)
	}
}

func TestPersistLoad(t *testing.T) {
	e := newExtractor(t, cities())
	dir := t.TempDir()
	keys, err := e.Persist(dir)
	if err != nil {
		t.Fatal(err)
	}
	md := metadata.New("en", []string{Name}, dir)
	md.Update(keys)

	loaded, err := Load(dir, md, config.New("en", Name), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Keywords()) != len(e.Keywords()) {
		t.Fatalf("keywords = %d, want %d", len(loaded.Keywords()), len(e.Keywords()))
	}
	if got := loaded.Extract("nyc"); len(got) != 1 || got[0].Value != "New York" {
		t.Errorf("got %+v", got)
	}
}

func TestExtractSkipsMarkup(t *testing.T) {
	e := newExtractor(t, cities())

	text := `<script>var paris = 1</script><p class="paris">to Paris</p><style>.nyc{}</style>`
	got := e.Extract(text)
	if len(got) != 1 {
		t.Fatalf("expected only the visible match, got %+v", got)
	}
	if text[got[0].Start:got[0].End] != "Paris" {
		t.Errorf("offsets %d:%d select %q", got[0].Start, got[0].End, text[got[0].Start:got[0].End])
	}

	if got := e.Extract("a <b>nyc</b> trip"); len(got) != 1 || got[0].Start != 5 || got[0].End != 8 {
		t.Errorf("text inside plain tags should still match, got %+v", got)
	}
}

func TestRetrainStartsFromGazetteer(t *testing.T) {
	e := newExtractor(t, cities())
	train := func(text, value, entity string, start int) {
		t.Helper()
		data := trainingdata.FromExamples([]trainingdata.Example{{
			Text:     text,
			Entities: []message.Entity{{Start: start, End: start + len(value), Value: value, Entity: entity}},
		}})
		if _, err := e.Train(data, config.New("en", Name), component.Context{}); err != nil {
			t.Fatal(err)
		}
	}

	train("order a pizza", "pizza", "food", 8)
	if got := e.Extract("pizza in paris"); len(got) != 2 {
		t.Fatalf("after first run: %+v", got)
	}

	train("order sushi", "sushi", "food", 6)
	got := e.Extract("pizza or sushi in paris")
	if len(got) != 2 || got[0].Value != "sushi" || got[1].Value != "Paris" {
		t.Errorf("after second run: %+v", got)
	}

	dir := t.TempDir()
	keys, err := e.Persist(dir)
	if err != nil {
		t.Fatal(err)
	}
	md := metadata.New("en", []string{Name}, dir)
	if err := md.Update(keys); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(dir, md, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loaded.Train(trainingdata.New(), config.New("en", Name), component.Context{}); err != nil {
		t.Fatal(err)
	}
	if got := loaded.Extract("sushi in paris"); len(got) != 1 || got[0].Value != "Paris" {
		t.Errorf("loaded extractor should retrain from its gazetteer, got %+v", got)
	}
}
