package notion

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"vox.town/pipeline"
)

func TestPageProperties(t *testing.T) {
	date := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	rec := pipeline.Record{
		Message:         "hello world",
		Date:            date,
		User:            "alice",
		DurationSeconds: 3,
	}

	props := pageProperties(rec, "Quick greeting")

	title, ok := props["Title"].(notionapi.TitleProperty)
	if !ok || len(title.Title) != 1 {
		t.Fatalf("bad Title property: %+v", props["Title"])
	}
	if title.Title[0].Text.Content != "Quick greeting" {
		t.Errorf("title = %q", title.Title[0].Text.Content)
	}

	transcript, ok := props["Transcript"].(notionapi.RichTextProperty)
	if !ok || transcript.RichText[0].Text.Content != "hello world" {
		t.Errorf("bad Transcript property: %+v", props["Transcript"])
	}

	user, ok := props["User"].(notionapi.RichTextProperty)
	if !ok || user.RichText[0].Text.Content != "alice" {
		t.Errorf("bad User property: %+v", props["User"])
	}

	duration, ok := props["Duration"].(notionapi.NumberProperty)
	if !ok || duration.Number != 3 {
		t.Errorf("bad Duration property: %+v", props["Duration"])
	}

	source, ok := props["Source"].(notionapi.SelectProperty)
	if !ok || source.Select.Name != "Telegram" {
		t.Errorf("bad Source property: %+v", props["Source"])
	}

	dateProp, ok := props["Date"].(notionapi.DateProperty)
	if !ok || dateProp.Date == nil || dateProp.Date.Start == nil {
		t.Fatalf("bad Date property: %+v", props["Date"])
	}
	if !time.Time(*dateProp.Date.Start).Equal(date) {
		t.Errorf("date = %v, want %v", dateProp.Date.Start, date)
	}
}

func TestDatabaseSchemaHasAllColumns(t *testing.T) {
	schema := databaseSchema()
	for _, name := range []string{
		"Title", "Transcript", "User", "Duration", "Date", "Source",
	} {
		if _, ok := schema[name]; !ok {
			t.Errorf("schema missing %q", name)
		}
	}
}
