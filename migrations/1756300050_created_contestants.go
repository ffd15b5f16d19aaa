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

		collection := core.NewBaseCollection("contestants")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "event_id",
				Required:      true,
				CollectionId:  events.Id,
				MaxSelect:     1,
				CascadeDelete: true,
			},
			&core.TextField{Name: "name", Required: true, Max: 255},
			&core.TextField{Name: "code", Max: 20},
			&core.EditorField{Name: "description"},
			&core.URLField{Name: "image_url"},
			&core.NumberField{Name: "vote_count", OnlyInt: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_contestants_event_code", true, "event_id, code", "code != ''")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("contestants")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
