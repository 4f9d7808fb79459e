package validators

import "go.mongodb.org/mongo-driver/bson"

var ProductValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"name",
			"rate_basis",
			"published",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"sku": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"rate_basis": bson.M{
				"bsonType": "object",
				"required": []string{"kind", "rate"},
				"properties": bson.M{
					"kind": bson.M{
						"bsonType": "string",
						"enum":     []string{"hourly", "daily"},
					},
					"rate": bson.M{
						"bsonType": "decimal",
					},
				},
			},

			"min_hours": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"max_hours": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"published": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var InventoryUnitValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"product_id",
			"label",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"product_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"label": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
