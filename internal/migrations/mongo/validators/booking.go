package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"name",
			"start_time",
			"end_time",
			"duration",
			"timezone",
			"utc_offset",
			"state",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 255,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			// nanoseconds
			"duration": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"utc_offset": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  -50400,
				"maximum":  50400,
			},

			"owner": bson.M{
				"bsonType":  "string",
				"maxLength": 320,
			},

			"pin": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"state": bson.M{
				"enum": []string{"reservation", "session"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var RoomLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"owner": bson.M{
				"bsonType": "string",
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
