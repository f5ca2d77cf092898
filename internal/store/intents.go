package store

import (
	"context"
	"fmt"

	"cashboard/internal/core"
	"cashboard/internal/export"
)

// Intent is a command a view sends to the store.
type Intent interface {
	intent()
}

type (
	FetchTransactionsIntent struct{}
	FetchCategoriesIntent   struct{}
	RefreshIntent           struct{}
	DismissErrorIntent      struct{}
	UploadIntent            struct {
		File    core.File
		OwnerID string
	}
	AddCategoryIntent struct {
		Draft core.CategoryDraft
	}
	AddTransactionIntent struct {
		Draft core.TransactionDraft
	}
	ExportIntent struct {
		Format export.Format
	}
)

func (FetchTransactionsIntent) intent() {}
func (FetchCategoriesIntent) intent()   {}
func (RefreshIntent) intent()           {}
func (DismissErrorIntent) intent()      {}
func (UploadIntent) intent()            {}
func (AddCategoryIntent) intent()       {}
func (AddTransactionIntent) intent()    {}
func (ExportIntent) intent()            {}

// Outcome carries the value an intent produced, if any.
type Outcome struct {
	Upload      *core.UploadResult
	Category    *core.Category
	Transaction *core.Transaction
	Artifact    *export.Artifact
}

// Dispatch runs the operation named by in.
func (s *Store) Dispatch(ctx context.Context, in Intent) (Outcome, error) {
	switch in := in.(type) {
	case FetchTransactionsIntent:
		return Outcome{}, s.FetchTransactions(ctx)
	case FetchCategoriesIntent:
		return Outcome{}, s.FetchCategories(ctx)
	case RefreshIntent:
		return Outcome{}, s.Refresh(ctx)
	case DismissErrorIntent:
		s.DismissError()
		return Outcome{}, nil
	case UploadIntent:
		res, err := s.UploadFile(ctx, in.File, in.OwnerID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Upload: &res}, nil
	case AddCategoryIntent:
		c, err := s.AddCategory(ctx, in.Draft)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Category: &c}, nil
	case AddTransactionIntent:
		t, err := s.AddTransaction(ctx, in.Draft)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Transaction: &t}, nil
	case ExportIntent:
		a, err := s.Export(in.Format)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Artifact: &a}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown intent %T", in)
	}
}
