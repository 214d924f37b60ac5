package integration

// ResultSet accumulates transfer objects keyed by their identifier, in
// insertion order. It is passed explicitly to collaborators that may add
// shared objects (such as media) while a product is being transformed.
type ResultSet struct {
	order   []string
	objects map[string]TransferObject
}

// NewResultSet creates an empty result set
func NewResultSet() *ResultSet {
	return &ResultSet{
		order:   make([]string, 0),
		objects: make(map[string]TransferObject),
	}
}

// Add stores an object under its identifier. Adding an identifier that is
// already present replaces the object but keeps its original position.
func (r *ResultSet) Add(object TransferObject) {
	id := object.GetIdentifier()
	if _, exists := r.objects[id]; !exists {
		r.order = append(r.order, id)
	}
	r.objects[id] = object
}

// Get returns the object stored under the identifier
func (r *ResultSet) Get(identifier string) (TransferObject, bool) {
	object, ok := r.objects[identifier]
	return object, ok
}

// Has returns true if an object with the identifier is stored
func (r *ResultSet) Has(identifier string) bool {
	_, ok := r.objects[identifier]
	return ok
}

// Len returns the number of stored objects
func (r *ResultSet) Len() int {
	return len(r.order)
}

// Objects returns all objects in insertion order
func (r *ResultSet) Objects() []TransferObject {
	objects := make([]TransferObject, 0, len(r.order))
	for _, id := range r.order {
		objects = append(objects, r.objects[id])
	}
	return objects
}

// Variations returns the stored variations in insertion order
func (r *ResultSet) Variations() []*Variation {
	variations := make([]*Variation, 0)
	for _, id := range r.order {
		if variation, ok := r.objects[id].(*Variation); ok {
			variations = append(variations, variation)
		}
	}
	return variations
}

// Stocks returns the stored stocks in insertion order
func (r *ResultSet) Stocks() []*Stock {
	stocks := make([]*Stock, 0)
	for _, id := range r.order {
		if stock, ok := r.objects[id].(*Stock); ok {
			stocks = append(stocks, stock)
		}
	}
	return stocks
}

// Merge appends all objects of another result set in its order
func (r *ResultSet) Merge(other *ResultSet) {
	if other == nil {
		return
	}
	for _, object := range other.Objects() {
		r.Add(object)
	}
}
