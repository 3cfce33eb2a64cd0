// Package constraints enforces the catalog's uniqueness and on-delete rules
// inside transactions and translates driver constraint errors into the
// catalog error kinds.
//
// # Usage
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//		if err := constraints.EnsureUnique(tx, &entities.Genre{}, entities.ModelGenre, "name", g.Name, g.ID); err != nil {
//			return err
//		}
//		return constraints.TranslateWrite(tx.Create(g).Error, entities.ModelGenre, "name", g.Name)
//	})
//
//	err = constraints.Delete(db, &entities.Book{}, entities.TableBooks, id)
package constraints

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// InvalidChoice is the message used for references to missing rows.
const InvalidChoice = "Select a valid choice. That choice is not one of the available choices."

var modelByTable = map[string]string{
	entities.TableGenres:        entities.ModelGenre,
	entities.TablePublishers:    entities.ModelPublisher,
	entities.TableLanguages:     entities.ModelLanguage,
	entities.TableAuthors:       entities.ModelAuthor,
	entities.TableBooks:         entities.ModelBook,
	entities.TableBookInstances: entities.ModelBookInstance,
}

// EnsureUnique fails with ErrUniquenessViolation when another row of model
// already holds value in column. excludeID skips the row being updated; pass
// nil (or a zero id) on create.
func EnsureUnique(tx *gorm.DB, model any, entity, column string, value any, excludeID any) error {
	query := tx.Model(model).Where(column+" = ?", value)
	if excludeID != nil && !isZeroID(excludeID) {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s uniqueness: %w", entity, err)
	}
	if count > 0 {
		return &entities.ConstraintError{
			Kind:   entities.ErrUniquenessViolation,
			Entity: entity,
			Field:  column,
			Value:  fmt.Sprint(value),
		}
	}
	return nil
}

// EnsureExists fails with a validation error on field when id is set but
// no row of table has it.
func EnsureExists(tx *gorm.DB, entity, field, table string, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Table(table).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", field, err)
	}
	if count == 0 {
		return entities.NewValidationError(entity, field, InvalidChoice)
	}
	return nil
}

// Apply runs the on-delete policies of every relation referencing the row
// id of table. RESTRICT relations are checked before anything is modified.
func Apply(tx *gorm.DB, table string, id any) error {
	relations := entities.RelationsTo(table)

	for _, rel := range relations {
		if rel.Policy != entities.OnDeleteRestrict {
			continue
		}
		var count int64
		if err := tx.Table(rel.Table).Where(rel.Column+" = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s: %w", rel.Name, err)
		}
		if count > 0 {
			return &entities.ConstraintError{
				Kind:   entities.ErrReferentialRestriction,
				Entity: modelByTable[table],
				Field:  rel.Name,
				Value:  fmt.Sprint(id),
				Count:  count,
			}
		}
	}

	for _, rel := range relations {
		var err error
		switch rel.Policy {
		case entities.OnDeleteSetNull:
			err = tx.Exec("UPDATE "+rel.Table+" SET "+rel.Column+" = NULL WHERE "+rel.Column+" = ?", id).Error
		case entities.OnDeleteCascade:
			err = tx.Exec("DELETE FROM "+rel.Table+" WHERE "+rel.Column+" = ?", id).Error
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s on %s: %w", rel.Policy, rel.Name, err)
		}
	}
	return nil
}

// Delete removes the row id of table in one transaction after applying the
// on-delete policies. Returns gorm.ErrRecordNotFound when the row is missing.
func Delete(db *gorm.DB, model any, table string, id any) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := Apply(tx, table, id); err != nil {
			return err
		}

		if err := tx.Where("id = ?", id).Delete(model).Error; err != nil {
			return TranslateDelete(err, table, id)
		}
		return nil
	})
}

// TranslateWrite maps a driver error from an insert or update. field and
// value name the unique column the write could collide on.
func TranslateWrite(err error, entity, field string, value any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueMessage(err):
		return &entities.ConstraintError{
			Kind:   entities.ErrUniquenessViolation,
			Entity: entity,
			Field:  field,
			Value:  fmt.Sprint(value),
		}
	case isCheckMessage(err):
		return &entities.ConstraintError{
			Kind:   entities.ErrInvalidEnumValue,
			Entity: entity,
			Field:  "status",
		}
	case errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyMessage(err):
		return &entities.ValidationError{
			Entity: entity,
			Fields: map[string]string{"__all__": InvalidChoice},
		}
	}
	return err
}

// TranslateDelete maps a foreign-key failure during delete onto
// ErrReferentialRestriction.
func TranslateDelete(err error, table string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyMessage(err) {
		return &entities.ConstraintError{
			Kind:   entities.ErrReferentialRestriction,
			Entity: modelByTable[table],
			Field:  table,
			Value:  fmt.Sprint(id),
		}
	}
	return err
}

func isUniqueMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func isForeignKeyMessage(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func isCheckMessage(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

func isZeroID(id any) bool {
	switch v := id.(type) {
	case uint:
		return v == 0
	case int:
		return v == 0
	case string:
		return v == ""
	}
	return false
}
