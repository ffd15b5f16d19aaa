package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		purchases, err := app.FindCollectionByNameOrId("purchases")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("check_ins")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "purchase_id",
				Required:     true,
				CollectionId: purchases.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event_id",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "checked_in_by",
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.DateField{Name: "check_in_time", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_check_ins_purchase", true, "purchase_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("check_ins")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
