package appMiddleware

type contextKey string

const FamilyIDKey contextKey = "familyID"
const FamilyNameKey contextKey = "familyName"
