package orders

import "strconv"

// Partition key = order id, so every event of one order stays ordered.
func PartitionKey(orderID int64) []byte { return []byte(PartitionKeyString(orderID)) }

func PartitionKeyString(orderID int64) string { return strconv.FormatInt(orderID, 10) }
