package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantry/internal/models"
	"pantry/internal/query"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pantryItemRecord is the storage shape of a pantry item: snake_case columns and
// YYYY-MM-DD expiration dates.
type pantryItemRecord struct {
	ID             string                `gorm:"column:id;primaryKey;type:varchar(36)"`
	UserID         string                `gorm:"column:user_id;size:255;not null;index"`
	Name           string                `gorm:"column:name;size:255;not null"`
	Brand          *string               `gorm:"column:brand;size:255"`
	Quantity       float64               `gorm:"column:quantity;not null"`
	Unit           string                `gorm:"column:unit;size:32;not null"`
	Category       string                `gorm:"column:category;size:32;not null;index"`
	ExpirationDate string                `gorm:"column:expiration_date;size:10;not null;index"`
	DateAdded      time.Time             `gorm:"column:date_added;not null"`
	DateUpdated    time.Time             `gorm:"column:date_updated;not null"`
	NutritionInfo  *models.NutritionInfo `gorm:"column:nutrition_info;serializer:json"`
	Barcode        *string               `gorm:"column:barcode;size:50;index"`
	Images         []string              `gorm:"column:images;serializer:json"`
	Notes          *string               `gorm:"column:notes"`
}

func (pantryItemRecord) TableName() string {
	return "pantry_items"
}

// columns maps logical query fields to storage columns.
var columns = map[query.Field]string{
	query.FieldName:           "name",
	query.FieldBrand:          "brand",
	query.FieldCategory:       "category",
	query.FieldExpirationDate: "expiration_date",
	query.FieldDateAdded:      "date_added",
}

func (rec pantryItemRecord) toModel() (models.PantryItem, error) {
	// PostgreSQL date columns come back as full timestamps; only the day matters.
	raw := rec.ExpirationDate
	if len(raw) > len(models.DateLayout) {
		raw = raw[:len(models.DateLayout)]
	}
	expires, err := models.ParseDate(raw)
	if err != nil {
		return models.PantryItem{}, fmt.Errorf("pantry item %s: %w", rec.ID, err)
	}
	images := rec.Images
	if images == nil {
		images = []string{}
	}
	return models.PantryItem{
		ID:             rec.ID,
		UserID:         rec.UserID,
		Name:           rec.Name,
		Brand:          rec.Brand,
		Quantity:       rec.Quantity,
		Unit:           models.Unit(rec.Unit),
		Category:       models.Category(rec.Category),
		ExpirationDate: expires,
		DateAdded:      rec.DateAdded,
		DateUpdated:    rec.DateUpdated,
		NutritionInfo:  rec.NutritionInfo,
		Barcode:        rec.Barcode,
		Images:         images,
		Notes:          rec.Notes,
	}, nil
}

func toModels(records []pantryItemRecord) ([]models.PantryItem, error) {
	items := make([]models.PantryItem, 0, len(records))
	for _, rec := range records {
		item, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GORMPantryRepository is a GORM implementation of PantryRepository.
type GORMPantryRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMPantryRepository creates a new instance of GORMPantryRepository.
func NewGORMPantryRepository(db *gorm.DB) *GORMPantryRepository {
	return &GORMPantryRepository{
		db:  db,
		now: time.Now,
	}
}

// WithClock replaces the clock used for timestamps and list filter boundaries.
func (r *GORMPantryRepository) WithClock(now func() time.Time) *GORMPantryRepository {
	r.now = now
	return r
}

// timestamp is the current time at the precision PostgreSQL timestamptz keeps.
func (r *GORMPantryRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *GORMPantryRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if r == nil || r.db == nil {
		return nil, ErrNotConfigured
	}
	return r.db.WithContext(ctx), nil
}

// Create inserts a new item; the id and both timestamps are assigned here.
func (r *GORMPantryRepository) Create(ctx context.Context, userID string, item models.NewPantryItem) (*models.PantryItem, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	now := r.timestamp()
	images := item.Images
	if images == nil {
		images = []string{}
	}
	rec := pantryItemRecord{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           item.Name,
		Brand:          item.Brand,
		Quantity:       item.Quantity,
		Unit:           string(item.Unit),
		Category:       string(item.Category),
		ExpirationDate: item.ExpirationDate.String(),
		DateAdded:      now,
		DateUpdated:    now,
		NutritionInfo:  item.NutritionInfo,
		Barcode:        item.Barcode,
		Images:         images,
		Notes:          item.Notes,
	}
	if err := db.Create(&rec).Error; err != nil {
		return nil, persistenceError("create pantry item", err)
	}
	created, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetByID retrieves a single item owned by userID.
func (r *GORMPantryRepository) GetByID(ctx context.Context, userID, id string) (*models.PantryItem, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rec pantryItemRecord
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, persistenceError("get pantry item", err)
	}
	item, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns one page of the user's items matching spec.
func (r *GORMPantryRepository) List(ctx context.Context, userID string, spec query.Spec) (*ItemPage, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	spec = spec.WithDefaults()
	plan := query.Build(spec, r.now().UTC())
	filter := planScope(userID, plan)

	var total int64
	if err := db.Model(&pantryItemRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, persistenceError("count pantry items", err)
	}

	var records []pantryItemRecord
	err = db.Scopes(filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: columns[plan.SortField]}, Desc: plan.Descending}).
		Order("id").
		Offset(plan.Offset).
		Limit(plan.Limit).
		Find(&records).Error
	if err != nil {
		return nil, persistenceError("get pantry items", err)
	}
	items, err := toModels(records)
	if err != nil {
		return nil, err
	}
	return &ItemPage{
		Items:      items,
		Total:      total,
		Page:       spec.Page,
		Limit:      spec.Limit,
		TotalPages: query.TotalPages(total, spec.Limit),
	}, nil
}

func planScope(userID string, plan query.Plan) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", userID)
		for _, c := range plan.Conditions {
			tx = tx.Where(fmt.Sprintf("%s %s ?", columns[c.Field], c.Op), c.Value)
		}
		if plan.Search != "" {
			pattern := "%" + escapeLike(strings.ToLower(plan.Search)) + "%"
			tx = tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		return tx
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update applies patch to the item and always rewrites date_updated.
func (r *GORMPantryRepository) Update(ctx context.Context, userID, id string, patch models.PantryItemPatch) (*models.PantryItem, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rec, cols := patchRecord(patch, r.timestamp())
	res := db.Model(&pantryItemRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Select(cols).
		Updates(rec)
	if res.Error != nil {
		return nil, persistenceError("update pantry item", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("pantry item with ID %s not found for update: %w", id, ErrItemNotFound)
	}
	return r.GetByID(ctx, userID, id)
}

// patchRecord returns a record holding the patched values and the columns to write.
func patchRecord(patch models.PantryItemPatch, now time.Time) (pantryItemRecord, []string) {
	rec := pantryItemRecord{DateUpdated: now}
	cols := []string{"date_updated"}
	if patch.Name != nil {
		rec.Name = *patch.Name
		cols = append(cols, "name")
	}
	if patch.Brand != nil {
		rec.Brand = patch.Brand
		cols = append(cols, "brand")
	}
	if patch.Quantity != nil {
		rec.Quantity = *patch.Quantity
		cols = append(cols, "quantity")
	}
	if patch.Unit != nil {
		rec.Unit = string(*patch.Unit)
		cols = append(cols, "unit")
	}
	if patch.Category != nil {
		rec.Category = string(*patch.Category)
		cols = append(cols, "category")
	}
	if patch.ExpirationDate != nil {
		rec.ExpirationDate = patch.ExpirationDate.String()
		cols = append(cols, "expiration_date")
	}
	if patch.NutritionInfo != nil {
		rec.NutritionInfo = patch.NutritionInfo
		cols = append(cols, "nutrition_info")
	}
	if patch.Barcode != nil {
		rec.Barcode = patch.Barcode
		cols = append(cols, "barcode")
	}
	if patch.Images != nil {
		rec.Images = append([]string{}, (*patch.Images)...)
		cols = append(cols, "images")
	}
	if patch.Notes != nil {
		rec.Notes = patch.Notes
		cols = append(cols, "notes")
	}
	return rec, cols
}

// Delete hard-deletes the item. Zero matched rows is not an error.
func (r *GORMPantryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	if err := db.Where("id = ? AND user_id = ?", id, userID).Delete(&pantryItemRecord{}).Error; err != nil {
		return false, persistenceError("delete pantry item", err)
	}
	return true, nil
}

// BarcodeExists checks every user's pantry for the barcode.
func (r *GORMPantryRepository) BarcodeExists(ctx context.Context, barcode string) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	var ids []string
	if err := db.Model(&pantryItemRecord{}).Where("barcode = ?", barcode).Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, persistenceError("check barcode", err)
	}
	return len(ids) > 0, nil
}

// ListExpiringSoon returns items expiring between the store's today and today+daysAhead.
// The boundary is computed by the store: PostgreSQL through get_items_expiring_soon,
// SQLite through date('now').
func (r *GORMPantryRepository) ListExpiringSoon(ctx context.Context, userID string, daysAhead int) ([]models.PantryItem, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var records []pantryItemRecord
	switch db.Dialector.Name() {
	case "postgres":
		err = db.Raw("SELECT * FROM get_items_expiring_soon(?, ?)", userID, daysAhead).Scan(&records).Error
	default:
		err = db.Where("user_id = ? AND expiration_date >= date('now') AND expiration_date <= date('now', ?)",
			userID, fmt.Sprintf("+%d days", daysAhead)).
			Order("expiration_date asc").
			Find(&records).Error
	}
	if err != nil {
		return nil, persistenceError("get items expiring soon", err)
	}
	return toModels(records)
}

// ListExpired returns items whose expiration date is before the store's today.
func (r *GORMPantryRepository) ListExpired(ctx context.Context, userID string) ([]models.PantryItem, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var records []pantryItemRecord
	switch db.Dialector.Name() {
	case "postgres":
		err = db.Raw("SELECT * FROM get_expired_items(?)", userID).Scan(&records).Error
	default:
		err = db.Where("user_id = ? AND expiration_date < date('now')", userID).
			Order("expiration_date asc").
			Find(&records).Error
	}
	if err != nil {
		return nil, persistenceError("get expired items", err)
	}
	return toModels(records)
}
