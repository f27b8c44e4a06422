package mysql

const attributesTable = "hotel_attributes"

const listActiveHotelsSQL = `
SELECT id, uuid, name
FROM hotels
WHERE is_active = 1
ORDER BY id
`

const getHotelByUUIDSQL = `
SELECT id, uuid, name
FROM hotels
WHERE uuid = ?
`

const findAttributeIDSQL = `
SELECT id
FROM hotel_attributes
WHERE hotel_uuid = ?
`

const deleteFAQsSQL = `
DELETE FROM hotel_faqs
WHERE hotel_uuid = ?
`

const insertFAQsPrefix = "INSERT INTO hotel_faqs\n  (hotel_uuid, position, question, answer)\nVALUES "

const listFAQsSQL = `
SELECT question, answer
FROM hotel_faqs
WHERE hotel_uuid = ?
ORDER BY position
`

// Attribute inserts/updates are built per call from validated column names,
// see buildInsert/buildUpdate in repo.go.
