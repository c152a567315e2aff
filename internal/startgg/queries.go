package startgg

// The four query documents this service sends. Shapes are fixed; only the
// variables change between calls.

const tournamentsQuery = `
query TournamentsByCountry($page: Int!, $perPage: Int!, $countryCode: String!, $videogameId: ID!) {
  tournaments(query: {
    page: $page
    perPage: $perPage
    sortBy: "startAt desc"
    filter: { countryCode: $countryCode, videogameIds: [$videogameId] }
  }) {
    pageInfo {
      total
      totalPages
    }
    nodes {
      id
      name
      slug
      startAt
      endAt
      venueAddress
      images {
        url
        type
      }
    }
  }
}`

const tournamentEventsQuery = `
query TournamentEvents($tournamentSlug: String!) {
  tournament(slug: $tournamentSlug) {
    id
    events {
      id
      name
      slug
      videogame {
        id
        name
      }
      teamRosterSize {
        minPlayers
        maxPlayers
      }
      images {
        url
        type
      }
    }
  }
}`

const phaseGroupSeedsQuery = `
query PhaseGroupSeeds($tournamentSlug: String!, $eventSlug: String!, $page: Int!, $perPage: Int!) {
  tournament(slug: $tournamentSlug) {
    events(filter: { slug: $eventSlug }) {
      phaseGroups {
        seeds(query: { page: $page, perPage: $perPage }) {
          pageInfo {
            total
            totalPages
          }
          nodes {
            seedNum
            placement
            entrant {
              name
              participants {
                player {
                  id
                  gamerTag
                  user {
                    id
                    name
                    discriminator
                    bio
                    location {
                      city
                      state
                      country
                    }
                    authorizations(types: [TWITTER]) {
                      type
                      externalUsername
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// Fallback shape for events whose bracket structure exposes no phase groups
const entrantSeedsQuery = `
query EntrantSeeds($tournamentSlug: String!, $eventSlug: String!, $page: Int!, $perPage: Int!) {
  tournament(slug: $tournamentSlug) {
    events(filter: { slug: $eventSlug }) {
      entrants(query: { page: $page, perPage: $perPage }) {
        pageInfo {
          total
          totalPages
        }
        nodes {
          name
          initialSeedNum
          standing {
            placement
          }
          participants {
            player {
              id
              gamerTag
              user {
                id
                name
                discriminator
                bio
                location {
                  city
                  state
                  country
                }
                authorizations(types: [TWITTER]) {
                  type
                  externalUsername
                }
              }
            }
          }
        }
      }
    }
  }
}`
