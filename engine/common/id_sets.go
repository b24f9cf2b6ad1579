package common

// CharacterIDSet is the data structure for a set of character IDs
type CharacterIDSet map[CharacterID]struct{}

// Add adds a character ID to CharacterIDSet
func (cs CharacterIDSet) Add(id CharacterID) {
	cs[id] = struct{}{}
}

// Del removes a character ID from CharacterIDSet
func (cs CharacterIDSet) Del(id CharacterID) {
	delete(cs, id)
}

// Contains checks if character ID is in CharacterIDSet
func (cs CharacterIDSet) Contains(id CharacterID) bool {
	_, ok := cs[id]
	return ok
}

// ToList convert CharacterIDSet to a slice of character IDs
func (cs CharacterIDSet) ToList() []CharacterID {
	list := make([]CharacterID, 0, len(cs))
	for cid := range cs {
		list = append(list, cid)
	}
	return list
}

// ForEach visits each character ID until the callback returns false
func (cs CharacterIDSet) ForEach(cb func(cid CharacterID) bool) {
	for cid := range cs {
		if !cb(cid) {
			break
		}
	}
}

// ConnectionIDSet is the data structure for a set of connection IDs
type ConnectionIDSet map[ConnectionID]struct{}

// Add adds a connection ID to ConnectionIDSet
func (cs ConnectionIDSet) Add(id ConnectionID) {
	cs[id] = struct{}{}
}

// Del removes a connection ID from ConnectionIDSet
func (cs ConnectionIDSet) Del(id ConnectionID) {
	delete(cs, id)
}

// Contains checks if connection ID is in ConnectionIDSet
func (cs ConnectionIDSet) Contains(id ConnectionID) bool {
	_, ok := cs[id]
	return ok
}

// ToList convert ConnectionIDSet to a slice of connection IDs
func (cs ConnectionIDSet) ToList() []ConnectionID {
	list := make([]ConnectionID, 0, len(cs))
	for cid := range cs {
		list = append(list, cid)
	}
	return list
}
