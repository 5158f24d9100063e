package outbox

const activityLoggedSchema = `{
  "type": "object",
  "title": "ActivityLogged",
  "properties": {
    "entry_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "hour": {"type": "integer", "minimum": 0, "maximum": 23},
    "duration_min": {"type": "integer", "minimum": 1},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["entry_id", "user_id", "activity", "date", "hour", "duration_min", "occurred_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "entry_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "hour": {"type": "integer", "minimum": 0, "maximum": 23},
    "duration_min": {"type": "integer", "minimum": 1},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["entry_id", "user_id", "activity", "date", "duration_min", "occurred_at"],
  "additionalProperties": false
}`

const freezeChangedSchema = `{
  "type": "object",
  "title": "FreezeChanged",
  "properties": {
    "user_id": {"type": "string"},
    "frozen": {"type": "boolean"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "frozen", "occurred_at"],
  "additionalProperties": false
}`
