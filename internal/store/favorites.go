package store

import "slices"

// FavoritesState is the set of track ids the signed-in user has liked, in insertion order.
type FavoritesState struct {
	IDs []int
}

// NewFavoritesStore creates an empty favorites store.
func NewFavoritesStore() *Store[FavoritesState] {
	return New(FavoritesState{}, ReduceFavorites)
}

// Has reports whether id is a favorite.
func (s FavoritesState) Has(id int) bool {
	return slices.Contains(s.IDs, id)
}

// Len returns the number of favorites.
func (s FavoritesState) Len() int {
	return len(s.IDs)
}

// Favorites actions.
type (
	// SetFavorites replaces the set, dropping duplicates.
	SetFavorites   struct{ IDs []int }
	AddFavorite    struct{ ID int }
	RemoveFavorite struct{ ID int }
)

// ReduceFavorites is the [Reducer] for [FavoritesState].
func ReduceFavorites(s FavoritesState, action Action) FavoritesState {
	switch a := action.(type) {
	case SetFavorites:
		ids := make([]int, 0, len(a.IDs))
		for _, id := range a.IDs {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		return FavoritesState{IDs: ids}
	case AddFavorite:
		if s.Has(a.ID) {
			return s
		}
		ids := make([]int, 0, len(s.IDs)+1)
		ids = append(ids, s.IDs...)
		return FavoritesState{IDs: append(ids, a.ID)}
	case RemoveFavorite:
		if !s.Has(a.ID) {
			return s
		}
		ids := make([]int, 0, len(s.IDs))
		for _, id := range s.IDs {
			if id != a.ID {
				ids = append(ids, id)
			}
		}
		return FavoritesState{IDs: ids}
	}
	return s
}
