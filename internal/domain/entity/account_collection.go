package entity

// AccountCollection is the ordered set of all account records.
// Usernames are unique across the collection.
type AccountCollection struct {
	Accounts []Account
}

// Len returns the number of records.
func (c *AccountCollection) Len() int { return len(c.Accounts) }

// FindByUsername returns the index of the record with the given username.
func (c *AccountCollection) FindByUsername(username string) (int, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Username == username {
			return i, true
		}
	}
	return -1, false
}

// UsernameTakenByOther reports whether a record other than the one at index
// already uses username.
func (c *AccountCollection) UsernameTakenByOther(index int, username string) bool {
	for i := range c.Accounts {
		if i != index && c.Accounts[i].Username == username {
			return true
		}
	}
	return false
}

// Append adds a record at the end of the collection.
func (c *AccountCollection) Append(a Account) {
	a.Normalize()
	c.Accounts = append(c.Accounts, a)
}

// Replace overwrites the record at index with a merged working copy.
func (c *AccountCollection) Replace(index int, a Account) {
	a.Normalize()
	c.Accounts[index] = a
}

// At returns a deep copy of the record at index.
func (c *AccountCollection) At(index int) Account {
	return c.Accounts[index].Clone()
}
