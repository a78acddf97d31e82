package models

// Category is the food category of a pantry item.
type Category string

const (
	CategoryProduce    Category = "produce"
	CategoryGrains     Category = "grains"
	CategoryMeat       Category = "meat"
	CategoryDairy      Category = "dairy"
	CategorySeafood    Category = "seafood"
	CategoryBeverages  Category = "beverages"
	CategorySnacks     Category = "snacks"
	CategoryCondiments Category = "condiments"
	CategoryFrozen     Category = "frozen"
	CategoryCanned     Category = "canned"
	CategoryBakery     Category = "bakery"
	CategorySpices     Category = "spices"
	CategoryOther      Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryProduce, CategoryGrains, CategoryMeat, CategoryDairy, CategorySeafood,
	CategoryBeverages, CategorySnacks, CategoryCondiments, CategoryFrozen, CategoryCanned,
	CategoryBakery, CategorySpices, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Unit is the measurement unit of an item's quantity. This is the single vocabulary shared
// by the API and the store; clients must send these exact values.
type Unit string

const (
	UnitPieces      Unit = "pieces"
	UnitGrams       Unit = "grams"
	UnitKilograms   Unit = "kilograms"
	UnitPounds      Unit = "pounds"
	UnitOunces      Unit = "ounces"
	UnitLiters      Unit = "liters"
	UnitMilliliters Unit = "milliliters"
	UnitCups        Unit = "cups"
	UnitTablespoons Unit = "tablespoons"
	UnitTeaspoons   Unit = "teaspoons"
	UnitPackages    Unit = "packages"
	UnitCans        Unit = "cans"
	UnitBottles     Unit = "bottles"
)

// Units lists every valid unit.
var Units = []Unit{
	UnitPieces, UnitGrams, UnitKilograms, UnitPounds, UnitOunces, UnitLiters,
	UnitMilliliters, UnitCups, UnitTablespoons, UnitTeaspoons, UnitPackages, UnitCans,
	UnitBottles,
}

func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}
