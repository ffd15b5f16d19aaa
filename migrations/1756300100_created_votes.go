package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		contestants, err := app.FindCollectionByNameOrId("contestants")
		if err != nil {
			return err
		}
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("votes")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "event_id",
				Required:      true,
				CollectionId:  events.Id,
				MaxSelect:     1,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:          "contestant_id",
				Required:      true,
				CollectionId:  contestants.Id,
				MaxSelect:     1,
				CascadeDelete: true,
			},
			&core.RelationField{
				Name:         "user_id",
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.NumberField{Name: "vote_count", Required: true, OnlyInt: true},
			&core.SelectField{
				Name:      "method",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"app", "ussd"},
			},
			&core.TextField{Name: "phone_number", Max: 30},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_votes_contestant", false, "contestant_id", "")
		collection.AddIndex("idx_votes_event_user", false, "event_id, user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("votes")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
