package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/numa-labs/numa/internal/finance"
)

// TransactionToProperties converts a transaction into Notion page properties.
// The transaction id is the page title so the syncer can find existing pages.
func TransactionToProperties(tx *finance.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: richText(tx.ID),
		},
		"Concept": notionapi.RichTextProperty{
			RichText: richText(tx.Concept),
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Type)},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Status)},
		},
	}

	if tx.Merchant != nil && *tx.Merchant != "" {
		props["Merchant"] = notionapi.RichTextProperty{
			RichText: richText(*tx.Merchant),
		}
	}

	if tx.Category != nil && *tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: *tx.Category},
		}
	}

	if tx.TransactionDate != nil {
		d := notionapi.Date(*tx.TransactionDate)
		props["Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}
