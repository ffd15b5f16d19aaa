package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.Add(
			&core.TextField{Name: "name", Max: 255},
			&core.SelectField{
				Name:      "role",
				MaxSelect: 1,
				Values:    []string{"voter", "organizer", "admin"},
			},
			&core.SelectField{
				Name:      "status",
				MaxSelect: 1,
				Values:    []string{"active", "suspended"},
			},
			&core.URLField{Name: "profile_pic"},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection.Fields.RemoveByName("role")
		collection.Fields.RemoveByName("status")
		collection.Fields.RemoveByName("profile_pic")

		return app.Save(collection)
	})
}
