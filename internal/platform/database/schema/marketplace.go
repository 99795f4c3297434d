// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// OwnedTable is a marketplace table whose rows reference users.
// Deleting a user removes these rows first, in DependentsOfUser order.
type OwnedTable struct {
	Table string
	// OwnerColumns hold a users.id; a row matching any of them is removed.
	OwnerColumns []string
}

// Products represents the 'products' table (parts sold by technicians)
var Products = OwnedTable{Table: "products", OwnerColumns: []string{"seller_id"}}

// Reviews represents the 'reviews' table
var Reviews = OwnedTable{Table: "reviews", OwnerColumns: []string{"author_id", "technician_id"}}

// DiscussionMessages represents the 'discussion_messages' table
var DiscussionMessages = OwnedTable{Table: "discussion_messages", OwnerColumns: []string{"sender_id"}}

// Discussions represents the 'discussions' table
var Discussions = OwnedTable{Table: "discussions", OwnerColumns: []string{"client_id", "technician_id"}}

// DependentsOfUser lists the tables to purge before a users row, children first.
// Messages of a removed discussion go with it via ON DELETE CASCADE.
var DependentsOfUser = []OwnedTable{Products, Reviews, DiscussionMessages, Discussions}
