package main

const configTemplate = `# Green League Season Configuration
# =================================
# This file defines the league, the rules every schedule must satisfy and
# where to find the travel distance tables used to price each trip.

# Season defines the default year and the shape of the regular season.
# start_date is the first day of week 1; time slot day offsets count from it.
season:
  year: 2025
  start_date: "2025-09-04"
  weeks: 18

# Divisions and their teams, grouped by conference. The nfl_rotation
# strategy needs exactly this shape: two conferences of four divisions of
# four teams, listed East, North, South, West within each conference.
# Team names must be unique across all divisions.
divisions:
  - name: AFC East
    conference: AFC
    teams: [Buffalo Bills, Miami Dolphins, New England Patriots, New York Jets]
  - name: AFC North
    conference: AFC
    teams: [Baltimore Ravens, Cincinnati Bengals, Cleveland Browns, Pittsburgh Steelers]
  - name: AFC South
    conference: AFC
    teams: [Houston Texans, Indianapolis Colts, Jacksonville Jaguars, Tennessee Titans]
  - name: AFC West
    conference: AFC
    teams: [Denver Broncos, Kansas City Chiefs, Las Vegas Raiders, Los Angeles Chargers]
  - name: NFC East
    conference: NFC
    teams: [Dallas Cowboys, New York Giants, Philadelphia Eagles, Washington Commanders]
  - name: NFC North
    conference: NFC
    teams: [Chicago Bears, Detroit Lions, Green Bay Packers, Minnesota Vikings]
  - name: NFC South
    conference: NFC
    teams: [Atlanta Falcons, Carolina Panthers, New Orleans Saints, Tampa Bay Buccaneers]
  - name: NFC West
    conference: NFC
    teams: [Arizona Cardinals, Los Angeles Rams, San Francisco 49ers, Seattle Seahawks]

# Teams that play in the same stadium. At most one of them hosts in any
# given week and slot.
shared_stadiums:
  - [New York Giants, New York Jets]
  - [Los Angeles Rams, Los Angeles Chargers]

# Weekly broadcast windows. Kinds:
#   early_prime  one game per week; a road game here follows a road game
#                in the standard slot the week before (see short weeks)
#   standard     the main Sunday window, any number of games
#   late_prime   one game per week
# day_offset counts days from the start of the week.
time_slots:
  - {name: Thursday Night, kind: early_prime, day_offset: 0}
  - {name: Sunday, kind: standard, day_offset: 3}
  - {name: Monday Night, kind: late_prime, day_offset: 4}

# Strategy determines how matchups are generated.
#   nfl_rotation        the NFL formula, seeded by last season's standings
#   division_weighted   division rivals twice, everyone else once
#   double_round_robin  everyone twice, home and away
strategy: nfl_rotation

# Standings files list every team, best first, one per line. {season} is
# replaced with the season being scheduled.
standings:
  pattern: "standings/{season}.txt"

# Rules are hard constraints. A schedule that violates these is invalid.
rules:
  games_per_team: 17
  byes_per_team: 1
  bye_window: {first: 5, last: 14}   # Byes only in weeks 5-14
  min_home_games: 8
  max_home_games: 9
  fatigue_window: 4                  # In any 4 straight weeks...
  max_home_in_window: 3              # ...at most 3 home games
  max_away_in_window: 3              # ...and at most 3 road games
  no_back_to_back_divisional: true   # Division rivals never meet in consecutive weeks
  enforce_short_week: true           # Thursday road games follow a Sunday road game
  short_week_exceptions: 1           # Season-wide allowance for the rule above

# Distance tables, in kilometres, one CSV per leg of a trip:
#   team,distance_km                     facility_to_stadium, facility_to_airport, stadium_to_airport
#   away_team,home_team,distance_km      facility_to_away_stadium
#   team_i,team_j,distance_km            airport_to_airport (either order)
# missing: fail_fast rejects incomplete tables; zero_default logs each gap
# once and treats it as 0 km.
distances:
  dir: distances
  facility_to_stadium: facility_to_stadium.csv
  facility_to_airport: facility_to_airport.csv
  stadium_to_airport: stadium_to_airport.csv
  facility_to_away_stadium: facility_to_away_stadium.csv
  airport_to_airport: airport_to_airport.csv
  missing: fail_fast

# Solver budget per season. Environment variables override these, e.g.
# GREENLEAGUE_SOLVER__TIME_LIMIT=10m.
solver:
  backend: cbc         # cbc, or branch_and_bound for small leagues
  # command: /usr/local/bin/cbc  # defaults to cbc on PATH
  time_limit: 1h
  relative_gap: 0.005
  node_limit: 0        # 0 means no limit
  parallel: 1          # Seasons solved at once by schedule run-all

logging:
  level: info          # debug, info, warn, error
  format: console      # console or json
`
