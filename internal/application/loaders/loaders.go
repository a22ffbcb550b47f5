// Package loaders batches profile lookups made while assembling read models
// such as the admin dashboard.
package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

// Loaders contains the dataloaders of one read. They cache results, so a
// Loaders value must not outlive the request that created it.
type Loaders struct {
	PatientLoader *dataloader.Loader[string, *entities.Patient]
	DoctorLoader  *dataloader.Loader[string, *entities.Doctor]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(patientRepo repositories.PatientRepository, doctorRepo repositories.DoctorRepository) *Loaders {
	return &Loaders{
		PatientLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Patient] {
			results := make([]*dataloader.Result[*entities.Patient], len(keys))
			patients, err := patientRepo.GetByIDs(ctx, keys)

			patientMap := make(map[string]*entities.Patient)
			if err == nil {
				for _, p := range patients {
					patientMap[p.ID] = p
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Patient]{Error: err}
				} else if p, ok := patientMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Patient]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Patient]{Error: apperrors.NewNotFoundError(fmt.Sprintf("patient %s not found", key))}
				}
			}
			return results
		}),
		DoctorLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Doctor] {
			results := make([]*dataloader.Result[*entities.Doctor], len(keys))
			doctors, err := doctorRepo.GetByIDs(ctx, keys)

			doctorMap := make(map[string]*entities.Doctor)
			if err == nil {
				for _, d := range doctors {
					doctorMap[d.ID] = d
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Doctor]{Error: err}
				} else if d, ok := doctorMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Doctor]{Data: d}
				} else {
					results[i] = &dataloader.Result[*entities.Doctor]{Error: apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", key))}
				}
			}
			return results
		}),
	}
}

// PatientNames resolves the names of ids. Unknown ids are absent from the
// result; any other lookup failure is returned.
func (l *Loaders) PatientNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	patients, errs := l.PatientLoader.LoadMany(ctx, ids)()
	for i, id := range ids {
		if err := pick(errs, i); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		names[id] = patients[i].Name
	}
	return names, nil
}

// DoctorNames resolves the full names of ids with the same rules as PatientNames
func (l *Loaders) DoctorNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	doctors, errs := l.DoctorLoader.LoadMany(ctx, ids)()
	for i, id := range ids {
		if err := pick(errs, i); err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		names[id] = doctors[i].FullName
	}
	return names, nil
}

// pick returns the error of key i. LoadMany returns either nil, a single
// error for the whole batch, or one error per key.
func pick(errs []error, i int) error {
	switch {
	case len(errs) == 0:
		return nil
	case i < len(errs):
		return errs[i]
	default:
		return errs[0]
	}
}

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
