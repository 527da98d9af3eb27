package outbox

const recordChangedSchema = `{
  "type": "object",
  "title": "RecordChanged",
  "properties": {
    "record_id": {"type": "string"},
    "user_id": {"type": "string"},
    "kind": {"type": "string", "enum": ["activity", "reflection"]},
    "op": {"type": "string", "enum": ["created", "updated", "deleted"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "user_id", "kind", "op", "occurred_at"],
  "additionalProperties": false
}`

const tagChangedSchema = `{
  "type": "object",
  "title": "TagChanged",
  "properties": {
    "user_id": {"type": "string"},
    "name": {"type": "string"},
    "type": {"type": "string"},
    "op": {"type": "string", "enum": ["upserted", "deleted"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "name", "op", "occurred_at"],
  "additionalProperties": false
}`
