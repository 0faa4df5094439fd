// Package notion persists transcript records as pages in a Notion
// database.
package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jomei/notionapi"

	"vox.town/pipeline"
)

// Titler produces a page title for a transcript. Optional; the sink
// falls back to a generic title when absent or when it returns an
// empty string.
type Titler func(ctx context.Context, transcript string) string

type Sink struct {
	client       *notionapi.Client
	databaseID   notionapi.DatabaseID
	parentPageID string
	titler       Titler
	logger       *log.Logger
}

func New(
	token string,
	databaseID string,
	parentPageID string,
	titler Titler,
	logger *log.Logger,
) *Sink {
	return &Sink{
		client:       notionapi.NewClient(notionapi.Token(token)),
		databaseID:   notionapi.DatabaseID(databaseID),
		parentPageID: parentPageID,
		titler:       titler,
		logger:       logger,
	}
}

// Ensure verifies the target database exists, creating it under the
// configured parent page when it is missing. Safe to call repeatedly.
func (s *Sink) Ensure(ctx context.Context) error {
	_, err := s.client.Database.Get(ctx, s.databaseID)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("%w: %v", pipeline.ErrSchemaUnavailable, err)
	}
	if s.parentPageID == "" {
		return fmt.Errorf(
			"%w: database %s not found and no parent page configured",
			pipeline.ErrSchemaUnavailable, s.databaseID,
		)
	}

	db, err := s.client.Database.Create(ctx, &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(s.parentPageID),
		},
		Title: []notionapi.RichText{
			{Text: &notionapi.Text{Content: "Voice Notes"}},
		},
		Properties: databaseSchema(),
	})
	if err != nil {
		return fmt.Errorf("%w: create database: %v", pipeline.ErrSchemaUnavailable, err)
	}

	s.databaseID = notionapi.DatabaseID(db.ID)
	s.logger.Info("created voice notes database", "id", db.ID)
	return nil
}

// Persist appends one page per record. No dedup: redelivered events
// produce duplicate pages, which is the documented trade-off of the
// stateless pipeline.
func (s *Sink) Persist(
	ctx context.Context,
	rec pipeline.Record,
) (string, error) {
	title := ""
	if s.titler != nil {
		title = s.titler(ctx, rec.Message)
	}
	if title == "" {
		title = fmt.Sprintf("Voice note from %s", rec.User)
	}

	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: pageProperties(rec, title),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrWrite, err)
	}

	s.logger.Info("saved voice note", "page", page.ID, "url", page.URL)
	return string(page.ID), nil
}

func databaseSchema() notionapi.PropertyConfigs {
	return notionapi.PropertyConfigs{
		"Title": notionapi.TitlePropertyConfig{
			Type: notionapi.PropertyConfigTypeTitle,
		},
		"Transcript": notionapi.RichTextPropertyConfig{
			Type: notionapi.PropertyConfigTypeRichText,
		},
		"User": notionapi.RichTextPropertyConfig{
			Type: notionapi.PropertyConfigTypeRichText,
		},
		"Duration": notionapi.NumberPropertyConfig{
			Type:   notionapi.PropertyConfigTypeNumber,
			Number: notionapi.NumberFormat{Format: notionapi.FormatNumber},
		},
		"Date": notionapi.DatePropertyConfig{
			Type: notionapi.PropertyConfigTypeDate,
		},
		"Source": notionapi.SelectPropertyConfig{
			Type: notionapi.PropertyConfigTypeSelect,
			Select: notionapi.Select{
				Options: []notionapi.Option{{Name: "Telegram"}},
			},
		},
	}
}

func pageProperties(rec pipeline.Record, title string) notionapi.Properties {
	date := notionapi.Date(rec.Date)
	return notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{Text: &notionapi.Text{Content: title}},
			},
		},
		"Transcript": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: rec.Message}},
			},
		},
		"User": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: rec.User}},
			},
		},
		"Duration": notionapi.NumberProperty{
			Number: float64(rec.DurationSeconds),
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		"Source": notionapi.SelectProperty{
			Select: notionapi.Option{Name: "Telegram"},
		},
	}
}

func isNotFound(err error) bool {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == "object_not_found"
	}
	return false
}
