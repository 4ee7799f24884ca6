// Package models defines the records synchronised between the homeroom
// client and the platform API.
//
// Every record implements [Entity]. Records that live under a parent
// collection (board items, planner items) also implement [Child].
//
// A [Kind] describes where a collection lives on the wire:
//
//	models.KindBoard.CollectionPath("")            // /api/boards
//	models.KindBoardItem.ItemPath("b1", "i1")     // /api/boards/b1/items/i1
//
// Calendar dates such as a planner's range use [Date], which encodes as
// "YYYY-MM-DD". Server timestamps are RFC 3339.
package models
