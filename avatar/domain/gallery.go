package domain

func galleryAvatar(id, name, description, gender, age, style string) GalleryAvatar {
	return GalleryAvatar{
		ID:          id,
		Name:        name,
		Description: description,
		Thumbnail:   "/public/avatars/" + id + "_thumb.jpg",
		ModelURL:    "/public/avatars/" + id + ".glb",
		Gender:      gender,
		Age:         age,
		Style:       style,
	}
}

var gallery = []GalleryAvatar{
	galleryAvatar("avatar-001", "Professional Woman", "Business professional with short hair", "female", "adult", "professional"),
	galleryAvatar("avatar-002", "Friendly Man", "Approachable man with glasses", "male", "adult", "casual"),
	galleryAvatar("avatar-003", "Young Professional", "Young woman with long hair", "female", "young", "modern"),
	galleryAvatar("avatar-004", "Senior Executive", "Mature man in suit", "male", "senior", "executive"),
	galleryAvatar("avatar-005", "Tech Expert", "Young man with casual style", "male", "young", "tech"),
	galleryAvatar("avatar-006", "Creative Director", "Artistic woman with unique style", "female", "adult", "creative"),
	galleryAvatar("avatar-007", "Healthcare Professional", "Medical professional in scrubs", "female", "adult", "medical"),
	galleryAvatar("avatar-008", "Sales Manager", "Confident man with tie", "male", "adult", "sales"),
	galleryAvatar("avatar-009", "Customer Service Rep", "Friendly woman with warm smile", "female", "adult", "service"),
	galleryAvatar("avatar-010", "Tech Support", "Helpful man with technical expertise", "male", "adult", "support"),
}

// Gallery returns a copy of the built-in base avatars.
func Gallery() []GalleryAvatar {
	out := make([]GalleryAvatar, len(gallery))
	copy(out, gallery)
	return out
}

func FindGalleryAvatar(id string) (GalleryAvatar, bool) {
	for _, a := range gallery {
		if a.ID == id {
			return a, true
		}
	}
	return GalleryAvatar{}, false
}
