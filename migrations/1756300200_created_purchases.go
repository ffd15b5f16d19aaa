package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		tickets, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("purchases")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "user_id",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "ticket_id",
				Required:     true,
				CollectionId: tickets.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event_id",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.NumberField{Name: "quantity", Required: true, OnlyInt: true},
			&core.NumberField{Name: "total_amount", Required: true},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "completed", "failed", "refunded"},
			},
			&core.TextField{Name: "qr_code", Required: true, Max: 64},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_purchases_qr_code", true, "qr_code", "")
		collection.AddIndex("idx_purchases_user", false, "user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("purchases")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
